package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads empty credentials when no file exists", func() {
		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Providers).To(BeEmpty())
	})

	It("stores and retrieves a key", func() {
		Expect(mgr.SetKey("openai", "sk-test-123")).To(Succeed())

		key, err := mgr.GetKey("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("sk-test-123"))
	})

	It("returns empty for providers without stored keys", func() {
		key, err := mgr.GetKey("anthropic")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(BeEmpty())
	})

	It("writes the credentials file with 0600 permissions", func() {
		Expect(mgr.SetKey("google", "AIza-test")).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, "credentials.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("removes stored keys", func() {
		Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())
		Expect(mgr.RemoveKey("openai")).To(Succeed())

		key, err := mgr.GetKey("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(BeEmpty())
	})

	It("lists providers in sorted order", func() {
		Expect(mgr.SetKey("openai", "a")).To(Succeed())
		Expect(mgr.SetKey("anthropic", "b")).To(Succeed())

		providers, err := mgr.ListProviders()
		Expect(err).NotTo(HaveOccurred())
		Expect(providers).To(Equal([]string{"anthropic", "openai"}))
	})

	Describe("ResolveKey", func() {
		It("prefers the environment variable over the stored key", func() {
			Expect(mgr.SetKey("openai", "sk-stored")).To(Succeed())
			GinkgoT().Setenv("OPENAI_API_KEY", "sk-env")

			key, err := mgr.ResolveKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-env"))
		})

		It("falls back to the stored key", func() {
			Expect(mgr.SetKey("anthropic", "sk-stored")).To(Succeed())
			GinkgoT().Setenv("ANTHROPIC_API_KEY", "")

			key, err := mgr.ResolveKey("anthropic")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-stored"))
		})
	})
})

var _ = Describe("Provider support", func() {
	It("recognizes the three vendors", func() {
		Expect(credentials.SupportedProviders()).To(Equal([]string{"openai", "anthropic", "google"}))
		Expect(credentials.IsSupportedProvider("google")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("mistral")).To(BeFalse())
	})

	It("maps providers to environment variables", func() {
		Expect(credentials.EnvVarForProvider("openai")).To(Equal("OPENAI_API_KEY"))
		Expect(credentials.EnvVarForProvider("anthropic")).To(Equal("ANTHROPIC_API_KEY"))
		Expect(credentials.EnvVarForProvider("google")).To(Equal("GOOGLE_API_KEY"))
		Expect(credentials.EnvVarForProvider("mistral")).To(BeEmpty())
	})
})
