package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/abedge/internal/config/processor"
	"github.com/jonesrussell/abedge/internal/sanitize"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *processor.Config
		wantErr error
	}{
		{
			name:   "defaults",
			config: processor.New(),
		},
		{
			name:   "regex backend with ugc policy",
			config: processor.New(processor.WithBackend("regex"), processor.WithSanitizerPolicy("ugc")),
		},
		{
			name:    "unknown backend",
			config:  processor.New(processor.WithBackend("xpath")),
			wantErr: processor.ErrInvalidBackend,
		},
		{
			name:    "empty backend",
			config:  &processor.Config{},
			wantErr: processor.ErrInvalidBackend,
		},
		{
			name:    "unknown policy",
			config:  processor.New(processor.WithSanitizerPolicy("strict")),
			wantErr: sanitize.ErrUnknownPolicy,
		},
	}

	for i := range tests {
		test := &tests[i]
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := test.config.Validate()
			if test.wantErr != nil {
				require.ErrorIs(t, err, test.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := processor.New()
	assert.Equal(t, &processor.Config{
		Backend:            "tree",
		EnableEmbeddedTags: true,
		SanitizerPolicy:    "denylist",
	}, cfg)
	assert.Equal(t, sanitize.PolicyDenylist, cfg.Policy())

	custom := processor.New(
		processor.WithBackend(processor.BackendRegex),
		processor.WithEmbeddedTags(false),
		processor.WithMinifyOutput(true),
		processor.WithSanitizerPolicy("ugc"),
	)
	assert.Equal(t, &processor.Config{
		Backend:         "regex",
		MinifyOutput:    true,
		SanitizerPolicy: "ugc",
	}, custom)
	assert.Equal(t, sanitize.PolicyUGC, custom.Policy())
}
