package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"percy-figma/internal/config"
	"percy-figma/internal/downloader"
	"percy-figma/internal/figma"
	"percy-figma/internal/logger"
	"percy-figma/internal/percy"
	"percy-figma/internal/scratch"
	"percy-figma/internal/state"
)

// Options holds the knobs that are not part of the YAML config.
type Options struct {
	// ScratchDir defaults to scratch.DefaultDir.
	ScratchDir string
	// FigmaBaseURL defaults to figma.DefaultBaseURL.
	FigmaBaseURL string
	// HTTPClient is used for both the API call and the downloads.
	HTTPClient *http.Client
	// UploadCommand replaces `npx percy` when set.
	UploadCommand []string
}

// Summary describes a finished run.
type Summary struct {
	Outcomes []downloader.Outcome
	Upload   *percy.Result
	Phases   []state.Phase
}

// Downloaded counts the images written to disk.
func (s *Summary) Downloaded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Run resolves, downloads and uploads the configured images, then removes
// the scratch directory. Cleanup runs once the upload has finished, whatever
// its result.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Summary, error) {
	if opts.ScratchDir == "" {
		opts.ScratchDir = scratch.DefaultDir
	}

	m := state.New()
	sum := &Summary{}
	defer func() { sum.Phases = m.History() }()

	must(m.Transition(state.ConfigLoaded))

	// ----- Resolve image URLs -----
	var clientOpts []figma.Option
	if opts.FigmaBaseURL != "" {
		clientOpts = append(clientOpts, figma.WithBaseURL(opts.FigmaBaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, figma.WithHTTPClient(opts.HTTPClient))
	}
	client := figma.NewClient(cfg.FigmaToken, clientOpts...)

	urls, err := client.ResolveImages(ctx, cfg.Source.ContainerToken(), cfg.IDs)
	if err != nil {
		must(m.Transition(state.Failed))
		return sum, err
	}
	must(m.Transition(state.ImagesResolved))

	if err := scratch.Ensure(opts.ScratchDir); err != nil {
		must(m.Transition(state.Failed))
		return sum, err
	}

	// ----- Download -----
	must(m.Transition(state.Downloading))
	outcomes, err := downloader.New(opts.HTTPClient).DownloadAll(ctx, cfg.IDs, urls, opts.ScratchDir, namerFor(cfg.Source))
	sum.Outcomes = outcomes
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		must(m.Transition(state.CleaningUp))
		return sum, finish(m, err, scratch.Remove(opts.ScratchDir))
	}
	if failed := len(outcomes) - sum.Downloaded(); failed > 0 {
		logger.Warn("[WARN] Downloaded %d of %d images, %d failed\n", sum.Downloaded(), len(outcomes), failed)
	} else {
		logger.Info("[INFO] All images downloaded successfully.\n")
	}

	// ----- Upload -----
	must(m.Transition(state.Uploading))
	res, uploadErr := uploaderFor(cfg, opts).Upload(ctx, opts.ScratchDir)
	sum.Upload = res
	report(res)
	if uploadErr != nil {
		logger.Error("[ERROR] %v\n", uploadErr)
	}

	// ----- Cleanup -----
	must(m.Transition(state.CleaningUp))
	return sum, finish(m, uploadErr, scratch.Remove(opts.ScratchDir))
}

// finish moves the machine to its terminal phase and merges the step error
// with any cleanup error.
func finish(m *state.Machine, stepErr, cleanupErr error) error {
	err := errors.Join(stepErr, cleanupErr)
	if err != nil {
		must(m.Transition(state.Failed))
		return err
	}
	must(m.Transition(state.Done))
	return nil
}

func namerFor(src config.Source) downloader.Namer {
	if fs, ok := src.(config.FileSource); ok && len(fs.Names) > 0 {
		return downloader.ByName(fs.Names)
	}
	return downloader.ByID
}

func uploaderFor(cfg *config.Config, opts Options) *percy.Uploader {
	upOpts := []percy.Option{percy.WithToken(cfg.PercyToken)}
	if len(opts.UploadCommand) > 0 {
		upOpts = append(upOpts, percy.WithCommand(opts.UploadCommand[0], opts.UploadCommand[1:]...))
	}
	// Named snapshots drop the .png suffix so they match the configured names.
	if fs, ok := cfg.Source.(config.FileSource); ok && len(fs.Names) > 0 {
		upOpts = append(upOpts, percy.WithStripExtensions(true))
	}
	return percy.NewUploader(upOpts...)
}

func report(res *percy.Result) {
	if res == nil {
		return
	}
	if out := strings.TrimSpace(res.Stdout); out != "" {
		logger.Info("[INFO] Command output: %s\n", out)
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		logger.Warn("[WARN] Command error output: %s\n", errOut)
	}
}

// must panics on a transition the runner itself got wrong.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("runner: %v", err))
	}
}
