package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestDeprecateImage(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	img, err := m.DeprecateImage(ctx, adminActor, "img-geocode-v2")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, models.ImageDeprecated, img.Status)

	// Deprecating a deprecated image is refused.
	again, err := m.DeprecateImage(ctx, adminActor, "img-geocode-v2")
	require.NoError(t, err)
	assert.Nil(t, again)

	entries := auditEntries(t, st)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionImageDeprecated, entries[0].Action)
	assert.Equal(t, models.TargetDockerImage, entries[0].TargetType)
}

func TestDisableImage_FromActiveAndDeprecated(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	// v2 is active, v1 already deprecated; both reach disabled directly.
	for _, id := range []string{"img-geocode-v2", "img-geocode-v1"} {
		img, err := m.DisableImage(ctx, adminActor, id)
		require.NoError(t, err)
		require.NotNil(t, img, id)
		assert.Equal(t, models.ImageDisabled, img.Status, id)
	}
}

func TestDisableImage_Terminal(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	_, err := m.DisableImage(ctx, adminActor, "img-geocode-v2")
	require.NoError(t, err)

	img, err := m.DeprecateImage(ctx, adminActor, "img-geocode-v2")
	require.NoError(t, err)
	assert.Nil(t, img)
	img, err = m.DisableImage(ctx, adminActor, "img-geocode-v2")
	require.NoError(t, err)
	assert.Nil(t, img)
	assert.Len(t, auditEntries(t, st), 1)
}

func TestTransitionImage_Unknown(t *testing.T) {
	m, _, _ := testManager(t)
	img, err := m.DeprecateImage(context.Background(), adminActor, "img-nope")
	require.NoError(t, err)
	assert.Nil(t, img)
}
