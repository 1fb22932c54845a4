package audit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/core"
)

type fileSinkOptions struct {
	Path string `mapstructure:"path"`
}

// Build constructs the auditor described by the audit config block.
// A disabled config yields the noop auditor.
func Build(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}

	switch cfg.Type {
	case "memory":
		return NewInMemoryAuditor(), nil
	case "file":
		var opts fileSinkOptions
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("decoding file audit options: %w", err)
		}
		if opts.Path == "" {
			return nil, fmt.Errorf("file audit sink requires a path")
		}
		return NewFileAuditor(opts.Path)
	default:
		return nil, fmt.Errorf("unknown audit sink type %q", cfg.Type)
	}
}
