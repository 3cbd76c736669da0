package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/batchcorp/mirror/point"
)

func (a *API) getPointsHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	points := a.Registry.List()

	infos := make([]*point.Info, 0, len(points))

	for _, p := range points {
		infos = append(infos, p.Info())
	}

	WriteJSON(http.StatusOK, infos, w)
}

func (a *API) getPointHandler(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	path := ps.ByName("path")

	p, ok := a.Registry.Get(path)
	if !ok {
		WriteErrorJSON(http.StatusNotFound, "publishing point not found", w)
		return
	}

	WriteJSON(http.StatusOK, p.Info(), w)
}

// closePointHandler ends a stream: every subscriber gets the end of
// transmission handshake and the encoder session ends on its next packet.
// The path is released immediately so a new encoder can publish on it.
func (a *API) closePointHandler(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	path := ps.ByName("path")

	p, ok := a.Registry.Get(path)
	if !ok {
		WriteErrorJSON(http.StatusNotFound, "publishing point not found", w)
		return
	}

	p.Close()
	a.Registry.Release(p)

	a.log.Infof("publishing point '%s' closed via API", path)

	WriteSuccessJSON(http.StatusOK, "publishing point closed", w)
}
