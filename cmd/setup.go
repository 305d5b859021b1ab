package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/jd"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"github.com/pkg/errors"
)

const (
	// generationTimeout bounds a single call to the AI service.
	generationTimeout = 5 * time.Minute
	// storeTimeout bounds store setup, which may dial redis.
	storeTimeout = 10 * time.Second
)

// Export engines for PDF output.
const (
	engineBuiltin = "builtin"
	enginePandoc  = "pandoc"
)

// ErrNoAPIKey is returned when neither the config, the environment nor the store holds a credential.
var ErrNoAPIKey = errors.New("no API key configured (set GEMINI_API_KEY or ANTHROPIC_API_KEY, or run 'resumeforge key set')")

func loadConfig() (cfg *config.Config, err error) {
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, err
	}

	if getVerbose() {
		fmt.Printf("Provider: %s (model %s)\n", cfg.Provider, cfg.GetTailorModel())
		fmt.Printf("Store: %s\n", cfg.Store.Backend)
	}

	return cfg, err
}

// openStore builds the configured store. closeFn releases any connection and is never nil.
func openStore(ctx context.Context, cfg *config.Config) (st *store.Store, closeFn func(), err error) {
	closeFn = func() {}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var kv store.KV
	switch cfg.Store.Backend {
	case config.BackendMemory:
		kv = store.NewMemoryKV()
	case config.BackendRedis:
		var redisKV *store.RedisKV
		redisKV, err = store.NewRedisKV(ctx, cfg.Store.RedisURL)
		if err != nil {
			err = errors.Wrap(err, "failed to open redis store")
			return st, closeFn, err
		}
		closeFn = func() { _ = redisKV.Close() }
		kv = redisKV
	default:
		var fileKV *store.FileKV
		fileKV, err = store.NewFileKV(cfg.Store.Path)
		if err != nil {
			err = errors.Wrap(err, "failed to open file store")
			return st, closeFn, err
		}
		kv = fileKV
	}

	st = store.New(kv)
	return st, closeFn, err
}

// resolveAPIKey prefers the config and environment, then the key saved with 'key set'.
func resolveAPIKey(ctx context.Context, cfg *config.Config, st *store.Store) (key string, err error) {
	key = cfg.APIKey()
	if key != "" {
		return key, err
	}

	if st != nil {
		key, err = st.APIKey(ctx)
		if err != nil {
			err = errors.Wrap(err, "failed to read stored API key")
			return key, err
		}
	}

	if key == "" {
		err = ErrNoAPIKey
		return key, err
	}

	return key, err
}

// withStore loads the config and store and hands the store to fn.
func withStore(fn func(ctx context.Context, st *store.Store) (err error)) (err error) {
	ctx := context.Background()

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	err = fn(ctx, st)
	return err
}

func newLLMClient(ctx context.Context, cfg *config.Config, key, model string) (client *llm.Client, err error) {
	var gen llm.Generator
	gen, err = llm.NewGenerator(ctx, llm.GeneratorOptions{
		Provider: cfg.Provider,
		APIKey:   key,
		Model:    model,
	})
	if err != nil {
		err = errors.Wrap(err, "failed to create AI client")
		return client, err
	}

	client = llm.NewClient(gen)
	return client, err
}

// taskClients sends tailoring and cover letters to different models.
type taskClients struct {
	tailor *llm.Client
	cover  *llm.Client
}

func (t taskClients) Tailor(ctx context.Context, job, resume string) (result llm.TailoringResult, err error) {
	result, err = t.tailor.Tailor(ctx, job, resume)
	return result, err
}

func (t taskClients) CoverLetter(ctx context.Context, job, tailoredResume string) (letter string, err error) {
	letter, err = t.cover.CoverLetter(ctx, job, tailoredResume)
	return letter, err
}

// newTailorer builds the AI client(s) for a session.
func newTailorer(ctx context.Context, cfg *config.Config, st *store.Store) (tailorer workflow.Tailorer, err error) {
	var key string
	key, err = resolveAPIKey(ctx, cfg, st)
	if err != nil {
		return tailorer, err
	}

	var tailorClient *llm.Client
	tailorClient, err = newLLMClient(ctx, cfg, key, cfg.GetTailorModel())
	if err != nil {
		return tailorer, err
	}

	if cfg.GetCoverLetterModel() == cfg.GetTailorModel() {
		tailorer = tailorClient
		return tailorer, err
	}

	var coverClient *llm.Client
	coverClient, err = newLLMClient(ctx, cfg, key, cfg.GetCoverLetterModel())
	if err != nil {
		return tailorer, err
	}

	tailorer = taskClients{tailor: tailorClient, cover: coverClient}
	return tailorer, err
}

func newJDClient(cfg *config.Config) (client *jd.Client) {
	client = jd.NewClient(cfg.ScrapeURL)
	return client
}

func getOutputDir(flagValue, configValue string) (outDir string) {
	if flagValue != "" {
		outDir = flagValue
		return outDir
	}
	outDir = configValue
	return outDir
}

func validateEngine(engine string) (err error) {
	if engine != engineBuiltin && engine != enginePandoc {
		err = errors.Errorf("invalid engine: %s (must be '%s' or '%s')", engine, engineBuiltin, enginePandoc)
		return err
	}
	return err
}

// exporter writes documents in the requested formats.
type exporter struct {
	outDir  string
	engine  string
	formats []renderer.Format
	pandoc  renderer.PandocOptions
}

func newExporter(cfg *config.Config, outDir, engine, formats string) (e *exporter, err error) {
	err = validateEngine(engine)
	if err != nil {
		return e, err
	}

	var parsed []renderer.Format
	parsed, err = renderer.ParseFormats(formats)
	if err != nil {
		return e, err
	}

	e = &exporter{
		outDir:  getOutputDir(outDir, cfg.Defaults.OutputDir),
		engine:  engine,
		formats: parsed,
		pandoc: renderer.PandocOptions{
			TemplatePath: cfg.Pandoc.TemplatePath,
			ClassPath:    cfg.Pandoc.ClassFile,
		},
	}
	return e, err
}

// export writes text as doc in the given formats, or the exporter's defaults when formats is empty.
// With the pandoc engine PDFs go through pandoc and the rest through the built-in renderers.
// Either every requested file is written or none is.
func (e *exporter) export(ctx context.Context, doc renderer.Document, text string, formats []renderer.Format) (paths []string, err error) {
	if len(formats) == 0 {
		formats = e.formats
	}

	builtin := formats
	viaPandoc := false
	if e.engine == enginePandoc {
		builtin = nil
		for _, format := range formats {
			if format == renderer.FormatPDF {
				viaPandoc = true
				continue
			}
			builtin = append(builtin, format)
		}
	}

	// Render everything in memory before touching the output directory.
	var outputs map[renderer.Format][]byte
	if len(builtin) > 0 {
		outputs, err = renderer.RenderAll(ctx, builtin, text)
		if err != nil {
			return paths, err
		}
	}

	var pandocPath string
	if viaPandoc {
		pandocPath = filepath.Join(e.outDir, renderer.Filename(doc, renderer.FormatPDF))
		err = renderer.PandocPDF(ctx, text, pandocPath, e.pandoc)
		if err != nil {
			return paths, err
		}
	}

	var written []string
	written, err = renderer.WriteRendered(e.outDir, doc, builtin, outputs)
	if err != nil {
		if pandocPath != "" {
			_ = os.Remove(pandocPath)
		}
		return paths, err
	}

	if pandocPath != "" {
		paths = append(paths, pandocPath)
	}
	paths = append(paths, written...)
	return paths, err
}
