package rspec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/rspecfx/cops/internal/copstest"
)

func TestContainExactly(t *testing.T) {
	c := NewContainExactly()

	t.Run("flags splatted arrays", func(t *testing.T) {
		copstest.ExpectOffense(t, c, copstest.Lines(
			"it { expect(foo).to contain_exactly(*array1, *array2) }",
			"                    ^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^ "+ContainExactlyMessage,
		))
		copstest.ExpectOffense(t, c, copstest.Lines(
			"it { expect(foo).to contain_exactly(*[1, 2, 3]) }",
			"                    ^^^^^^^^^^^^^^^^^^^^^^^^^^^ "+ContainExactlyMessage,
		))
	})

	accepted := []struct {
		name string
		src  string
	}{
		{name: "mixed splat and value", src: "it { expect(foo).to contain_exactly(x, *a) }\n"},
		{name: "plain values", src: "it { expect(foo).to contain_exactly(1, 2, 3) }\n"},
		{name: "no arguments", src: "it { expect(foo).to contain_exactly }\n"},
		{name: "explicit receiver", src: "it { expect(foo).to matchers.contain_exactly(*a) }\n"},
		{name: "match_array", src: "it { expect(foo).to match_array(array) }\n"},
	}
	for _, tt := range accepted {
		t.Run(tt.name, func(t *testing.T) {
			copstest.ExpectNoOffenses(t, c, tt.src)
		})
	}

	t.Run("corrects to match_array", func(t *testing.T) {
		copstest.ExpectCorrection(t, c,
			"it { expect(foo).to contain_exactly(*array1, *array2) }\n",
			"it { expect(foo).to match_array(array1 + array2) }\n",
		)
		copstest.ExpectCorrection(t, c,
			"it { expect(foo).to contain_exactly(*[1, 2], *three) }\n",
			"it { expect(foo).to match_array([1, 2] + three) }\n",
		)
	})

	t.Run("offenses are correctable", func(t *testing.T) {
		offenses := copstest.Inspect(t, "expect(x).to contain_exactly(*a)\n", c)
		if assert.Len(t, offenses, 1) {
			assert.True(t, offenses[0].Correctable)
			assert.Equal(t, "RSpec/ContainExactly", offenses[0].CopName)
		}
	})

	t.Run("compliant source is left alone", func(t *testing.T) {
		src := "it { expect(foo).to match_array(a + b) }\n"
		assert.Equal(t, src, copstest.Correct(t, src, c))
	})
}

func TestContainExactlyAndMatchArrayConverge(t *testing.T) {
	got := copstest.Correct(t,
		"it { expect(foo).to contain_exactly(*[1, 2]) }\n",
		NewContainExactly(), NewMatchArray(),
	)
	assert.Equal(t, "it { expect(foo).to contain_exactly(1, 2) }\n", got)
}
