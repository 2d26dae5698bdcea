package cops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rspecfx/config"
	"github.com/oxhq/rspecfx/cop"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"FactoryBot/CreateList",
		"RSpec/ContainExactly",
		"RSpec/ExampleWithoutExpectation",
		"RSpec/LetBeforeExamples",
		"RSpec/MatchArray",
	}, Names())

	e, ok := Lookup("FactoryBot/CreateList")
	require.True(t, ok)
	assert.Equal(t, "create_list", e.Defaults.EnforcedStyle)

	_, ok = Lookup("RSpec/Nope")
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		sel     Selection
		want    []string
		wantErr error
	}{
		{
			name: "defaults enable everything",
			want: Names(),
		},
		{
			name: "disabled cop",
			mutate: func(cfg *config.Config) {
				cfg.Cops["RSpec/MatchArray"] = config.CopConfig{Enabled: config.Bool(false)}
			},
			want: []string{
				"FactoryBot/CreateList",
				"RSpec/ContainExactly",
				"RSpec/ExampleWithoutExpectation",
				"RSpec/LetBeforeExamples",
			},
		},
		{
			name: "only wins over enabled",
			mutate: func(cfg *config.Config) {
				cfg.Cops["RSpec/MatchArray"] = config.CopConfig{Enabled: config.Bool(false)}
			},
			sel:  Selection{Only: []string{"RSpec/MatchArray"}},
			want: []string{"RSpec/MatchArray"},
		},
		{
			name: "except",
			sel:  Selection{Except: []string{"FactoryBot/CreateList", "RSpec/LetBeforeExamples"}},
			want: []string{"RSpec/ContainExactly", "RSpec/ExampleWithoutExpectation", "RSpec/MatchArray"},
		},
		{
			name:    "unknown selection",
			sel:     Selection{Only: []string{"RSpec/Nope"}},
			wantErr: config.ErrUnknownCop,
		},
		{
			name: "unknown section",
			mutate: func(cfg *config.Config) {
				cfg.Cops["Style/Nope"] = config.CopConfig{}
			},
			wantErr: config.ErrUnknownCop,
		},
		{
			name: "unsupported style",
			mutate: func(cfg *config.Config) {
				cfg.Cops["FactoryBot/CreateList"] = config.CopConfig{EnforcedStyle: "loop"}
			},
			wantErr: config.ErrUnknownStyle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			set, err := Build(cfg, tt.sel)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Names())
		})
	}
}

func TestBuildStyle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cops["FactoryBot/CreateList"] = config.CopConfig{EnforcedStyle: "n_times"}

	set, err := Build(cfg, Selection{Only: []string{"FactoryBot/CreateList"}})
	require.NoError(t, err)
	require.Len(t, set.Cops(), 1)

	styled, ok := set.Cops()[0].(cop.Styled)
	require.True(t, ok)
	assert.Equal(t, "n_times", styled.Style())
}

func TestForFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cops["RSpec/ExampleWithoutExpectation"] = config.CopConfig{Exclude: []string{"spec/features/**"}}

	set, err := Build(cfg, Selection{})
	require.NoError(t, err)

	assert.Len(t, set.ForFile("spec/models/user_spec.rb"), 5)

	names := func(cs []cop.Cop) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name())
		}
		return out
	}
	assert.NotContains(t, names(set.ForFile("spec/features/login_spec.rb")), "RSpec/ExampleWithoutExpectation")
}
