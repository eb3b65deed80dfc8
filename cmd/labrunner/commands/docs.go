package commands

import (
	"os"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/docsite"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

// DocsCmd groups the docs site subcommands.
type DocsCmd struct {
	Check  DocsCheckCmd  `cmd:"" help:"Validate nav, links, and content against the site configuration"`
	Build  DocsBuildCmd  `cmd:"" help:"Build the site with the configured generator"`
	Serve  DocsServeCmd  `cmd:"" help:"Serve the site with the configured generator's dev server"`
	Verify DocsVerifyCmd `cmd:"" help:"Check internal links and assets in the rendered site"`
}

// DocsCheckCmd validates the docs tree without rendering it.
type DocsCheckCmd struct {
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Strict bool   `help:"Treat warnings as failures"`
}

func (d *DocsCheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	site, err := docsite.FromConfig(cfg)
	if err != nil {
		return err
	}

	manifestPath := docsite.ManifestPath(cfg)
	manifest, err := docsite.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	checker := docsite.NewChecker(site)
	if manifest != nil {
		checker = checker.WithManifest(manifest)
	}

	report, err := checker.Check()
	if err != nil {
		return err
	}

	if err := docsite.NewFormatter(d.Format).Format(os.Stdout, report); err != nil {
		return err
	}

	// Record the fingerprints we just computed so the next check reports
	// drift against this run.
	if len(report.Fingerprints) > 0 {
		if manifest == nil {
			manifest = docsite.NewManifest()
		}
		manifest.GeneratedAt = time.Now()
		manifest.Docs = report.Fingerprints
		if err := manifest.Save(manifestPath); err != nil {
			return err
		}
	}

	if report.HasErrors() {
		return errors.New(errors.CategoryDocs, errors.SeverityError, "docs check found errors")
	}
	if d.Strict && report.HasWarnings() {
		return errors.New(errors.CategoryDocs, errors.SeverityError, "docs check found warnings and --strict is set")
	}
	return nil
}

// DocsBuildCmd renders the site through the external generator.
type DocsBuildCmd struct{}

func (d *DocsBuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	site, err := docsite.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return docsite.NewGenerator(toolexec.NewExecutor()).Build(ctx, site)
}

// DocsServeCmd runs the generator's development server until interrupted.
type DocsServeCmd struct {
	Addr string `default:"127.0.0.1:8000" help:"Address for the generator's dev server"`
}

func (d *DocsServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	site, err := docsite.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return docsite.NewGenerator(toolexec.NewExecutor()).Serve(ctx, site, d.Addr)
}

// DocsVerifyCmd walks the rendered site and checks that internal references
// resolve.
type DocsVerifyCmd struct {
	SiteDir string `name:"site-dir" help:"Rendered site directory (defaults to the configured one)"`
}

func (d *DocsVerifyCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	siteDir := d.SiteDir
	if siteDir == "" {
		siteDir = docsite.SiteDir(cfg)
	}

	report, err := docsite.VerifySite(siteDir)
	if err != nil {
		return err
	}

	if err := docsite.NewFormatter("text").Format(os.Stdout, report); err != nil {
		return err
	}

	if report.HasErrors() {
		return errors.New(errors.CategoryDocs, errors.SeverityError, "rendered site has broken references")
	}
	return nil
}
