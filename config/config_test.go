package config

import (
	"io/ioutil"
	"os"
	"path"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error

		dir, err = ioutil.TempDir("", "mirror-config")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Context("New", func() {
		It("generates and persists a mirror id on first run", func() {
			cfg, err := New(dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.MirrorID).ToNot(BeEmpty())
			Expect(cfg.CreatedAt.IsZero()).To(BeFalse())
			Expect(cfg.Dir()).To(Equal(dir))
			Expect(Exists(dir, DefaultFileName)).To(BeTrue())
		})

		It("reuses the persisted mirror id", func() {
			first, err := New(dir)
			Expect(err).ToNot(HaveOccurred())

			second, err := New(dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(second.MirrorID).To(Equal(first.MirrorID))
		})

		It("creates a missing config dir", func() {
			nested := path.Join(dir, "a", "b")

			_, err := New(nested)
			Expect(err).ToNot(HaveOccurred())
			Expect(Exists(nested, DefaultFileName)).To(BeTrue())
		})

		It("errors on a corrupt config file", func() {
			Expect(WriteConfig(dir, DefaultFileName, []byte("{not json"))).To(Succeed())

			_, err := New(dir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("could not unmarshal"))
		})
	})

	Context("ReadConfig", func() {
		It("returns an empty config for a missing file", func() {
			cfg, err := ReadConfig(dir, "missing.json")
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.MirrorID).To(BeEmpty())
		})

		It("reads what Save wrote", func() {
			cfg := &Config{MirrorID: "abc", dir: dir}
			Expect(cfg.Save()).To(Succeed())

			read, err := ReadConfig(dir, DefaultFileName)
			Expect(err).ToNot(HaveOccurred())
			Expect(read.MirrorID).To(Equal("abc"))
		})
	})

	Context("Exists", func() {
		It("reports missing files", func() {
			Expect(Exists(dir, "nope.json")).To(BeFalse())
		})
	})
})
