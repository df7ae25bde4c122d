package inspect_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/abedge/cmd/inspect"
	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/treatment"
)

const page = `<main>
<treatment name="hero" trigger-on-view>
  <treatmentvariant variant="A">Control</treatmentvariant>
  <treatmentvariant variant="B">Variant</treatmentvariant>
</treatment>
<treatment name="broken">
  <treatmentvariant variant="0">one</treatmentvariant>
  <treatmentvariant variant="0">two</treatmentvariant>
</treatment>
</main>`

func TestInspect(t *testing.T) {
	t.Parallel()

	rows := inspect.Inspect(page, treatment.AssignmentsFrom([]domain.ExperimentData{
		domain.Assigned("hero", 1),
	}))
	require.Len(t, rows, 2)

	assert.Equal(t, "hero", rows[0].Experiment)
	assert.True(t, rows[0].TriggerOnView)
	assert.Equal(t, []string{"A", "B"}, rows[0].Variants)
	assert.Equal(t, "B", rows[0].Selected)
	assert.Equal(t, treatment.StepAlphabetic, rows[0].Step)
	assert.Equal(t, "ok", rows[0].Status)

	assert.Equal(t, "broken", rows[1].Experiment)
	assert.Equal(t, "-", rows[1].Selected)
	assert.Contains(t, rows[1].Status, "duplicate treatment variant")
}

func TestInspect_UnassignedFallsBack(t *testing.T) {
	t.Parallel()

	rows := inspect.Inspect(page, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Selected)
	assert.Equal(t, treatment.StepFallback, rows[0].Step)
}

func TestRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inspect.Render(&buf, inspect.Inspect(page, nil))

	out := buf.String()
	assert.Contains(t, out, "Experiment")
	assert.Contains(t, out, "hero")
	assert.Contains(t, out, "A, B")
	assert.Contains(t, out, "broken")
}
