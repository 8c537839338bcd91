package nlp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrganizations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"labeled facility", "Provider: Springfield General Hospital", []string{"Springfield General Hospital"}},
		{"several", "Seen at Mercy Clinic today and Lakeside Family Health", []string{"Mercy Clinic", "Lakeside Family Health"}},
		{"medical center", "Care at the Riverside Medical Center.", []string{"Riverside Medical Center"}},
		{"bare suffix ignored", "Hospital", nil},
		{"dedup", "Mercy Clinic\nMERCY CLINIC\nMercy Clinic", []string{"Mercy Clinic"}},
		{"none", "no organizations here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindOrganizations(tt.text))
		})
	}
}

func TestCleanPerson(t *testing.T) {
	assert.Equal(t, "John Smith", cleanPerson("Patient John Smith"))
	assert.Equal(t, "Jane Roe", cleanPerson("Dr. Jane Roe,"))
	assert.Equal(t, "", cleanPerson("Smith"))
	assert.Equal(t, "", cleanPerson("the patient"))
}

func TestProseRecognizer_EmptyText(t *testing.T) {
	got, err := NewProseRecognizer(0).Recognize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got.People)
	assert.Empty(t, got.Organizations)
}

func TestProseRecognizer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProseRecognizer(0).Recognize(ctx, "John Smith")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProseRecognizer_Document(t *testing.T) {
	text := "John Smith was admitted to Springfield General Hospital on Monday."

	got, err := NewProseRecognizer(0).Recognize(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, []string{"Springfield General Hospital"}, got.Organizations)
	for _, p := range got.People {
		assert.GreaterOrEqual(t, len(strings.Fields(p)), 2)
	}
}

func TestProseRecognizer_TruncatesInput(t *testing.T) {
	r := NewProseRecognizer(20)
	text := "Mercy Clinic " + strings.Repeat("x", 100) + " Lakeside Family Health"

	got, err := r.Recognize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mercy Clinic"}, got.Organizations)
}
