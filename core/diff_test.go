package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	assert.Empty(t, Diff("a_spec.rb", "same\n", "same\n"))

	got := Diff("spec/a_spec.rb",
		"it do\n  expect(x).to match_array([1, 2])\nend\n",
		"it do\n  expect(x).to contain_exactly(1, 2)\nend\n")

	assert.Contains(t, got, "--- a/spec/a_spec.rb\n")
	assert.Contains(t, got, "+++ b/spec/a_spec.rb\n")
	assert.Contains(t, got, "-  expect(x).to match_array([1, 2])\n")
	assert.Contains(t, got, "+  expect(x).to contain_exactly(1, 2)\n")
	assert.Contains(t, got, " it do\n")
}
