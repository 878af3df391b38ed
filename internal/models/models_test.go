package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/i18n"
)

func TestDifficultyBadge(t *testing.T) {
	assert.Equal(t, "success", Beginner.Badge())
	assert.Equal(t, "warning", Intermediate.Badge())
	assert.Equal(t, "danger", Advanced.Badge())
	assert.Equal(t, "secondary", Difficulty("Expert").Badge())
	assert.Equal(t, "success", Difficulty("").Badge())
}

func TestDifficultyOrdering(t *testing.T) {
	for i := 1; i < len(Difficulties); i++ {
		assert.Less(t, Difficulties[i-1].Rank(), Difficulties[i].Rank())
	}
	assert.False(t, Difficulty("Expert").Valid())
}

func TestCardInputWithDefaults(t *testing.T) {
	in := CardInput{Title: "Autoclave"}.WithDefaults()
	assert.Equal(t, "Unknown", in.ContentProvider)
	assert.Equal(t, "All", in.TargetAudience)
	assert.Equal(t, Beginner, in.DifficultyLevel)

	kept := CardInput{Title: "x", ContentProvider: "WHO", DifficultyLevel: Advanced}.WithDefaults()
	assert.Equal(t, "WHO", kept.ContentProvider)
	assert.Equal(t, Advanced, kept.DifficultyLevel)
}

func TestTrainingCardDecodesLegacyMedia(t *testing.T) {
	payload := `{"id":7,"title":"CPR Basics","title_swahili":"","category_id":2,
		"video_urls":"[\"v1.mp4\",\"v2.mp4\"]","audio_urls":"legacy.mp3"}`

	var card TrainingCard
	require.NoError(t, json.Unmarshal([]byte(payload), &card))

	assert.Equal(t, "CPR Basics", card.Titles().In(i18n.Swahili))
	assert.Len(t, card.VideoURLs, 2)
	assert.Equal(t, []string{"legacy.mp3"}, []string(card.AudioURLs))
	require.NotNil(t, card.CategoryID)
	assert.Equal(t, int64(2), *card.CategoryID)
}

func TestCategoryProtected(t *testing.T) {
	all := Category{ID: DefaultCategoryID, Name: "All", NameKorean: "모두"}
	assert.True(t, all.IsProtected())
	assert.Equal(t, "모두", all.Names().In(i18n.Korean))
	assert.False(t, (&Category{ID: 2}).IsProtected())
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestUploadKindValid(t *testing.T) {
	assert.True(t, UploadPDF.Valid())
	assert.False(t, UploadKind("exe").Valid())
}
