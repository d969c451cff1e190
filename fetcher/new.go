package fetcher

import (
	"github.com/rotisserie/eris"

	"contact-scraper/utils"
)

// New builds the engine named by opts.Engine.
func New(opts Options, logger *utils.Logger) (Fetcher, error) {
	switch opts.Engine {
	case "", EngineColly:
		return NewCollyFetcher(opts, logger)
	case EngineBrowser:
		return NewBrowserFetcher(opts, logger)
	default:
		return nil, eris.Errorf("fetcher: unknown engine %q (valid: colly, browser)", opts.Engine)
	}
}
