package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metaSidecar = `[.album:alb1]
name=Summer
token=alb1
[Contacts2]
face1=Alice;;
face2=Bob;;
[sunset.png]
faces=rect64(1c863ab430a462a5),face1;rect64(44633848593c6170),face2
albums=alb1
keywords=nature,dusk
[untagged.png]
star=yes
[beach.png]
keywords=sea
albums=alb1,ghost
`

func extract(t *testing.T, text string, idx *TokenIndex) ([]Record, ExtractStats, error) {
	t.Helper()
	return ExtractRecords(ParseSidecar("test.ini", text).Lines(), idx, ExtractOptions{MetaPrefix: "pmeta/"})
}

func TestExtractRecords_OrderKeywordsAlbumsFaces(t *testing.T) {
	idx := buildIndex(metaSidecar)

	records, stats, err := extract(t, metaSidecar, idx)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, Record{
		ImageName: "sunset.png",
		Tags:      []string{"nature", "dusk", "pmeta/Summer", "pmeta/Alice", "pmeta/Bob"},
	}, records[0])
	assert.Equal(t, Record{
		ImageName: "beach.png",
		Tags:      []string{"sea", "pmeta/Summer"},
	}, records[1])

	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, []string{"ghost"}, stats.UnresolvedTokens)
}

func TestExtractRecords_MetaDisabled(t *testing.T) {
	records, stats, err := extract(t, metaSidecar, nil)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"nature", "dusk"}, records[0].Tags)
	assert.Equal(t, []string{"sea"}, records[1].Tags)
	assert.Zero(t, stats.Unresolved)
}

func TestExtractRecords_KeywordsVerbatim(t *testing.T) {
	records, _, err := extract(t, "[a.jpg]\nkeywords= interior design,minecraft,,minecraft\n", nil)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, []string{" interior design", "minecraft", "minecraft"}, records[0].Tags)
}

func TestExtractRecords_UnresolvedTokenKeepsOtherTags(t *testing.T) {
	records, stats, err := extract(t, "[a.jpg]\nalbums=missing\nkeywords=kept\n", NewTokenIndex())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, []string{"kept"}, records[0].Tags)
	assert.Equal(t, 1, stats.Unresolved)
}

func TestExtractRecords_OnlyUnresolvedProducesNoRecord(t *testing.T) {
	records, stats, err := extract(t, "[a.jpg]\nfaces=rect64(00),nobody\n", NewTokenIndex())
	require.NoError(t, err)

	assert.Empty(t, records)
	assert.Zero(t, stats.Records)
	assert.Equal(t, []string{"nobody"}, stats.UnresolvedTokens)
}

func TestExtractRecords_FacePairWithoutComma(t *testing.T) {
	idx := buildIndex("[Contacts2]\nabc=Carol;;\n")

	records, _, err := extract(t, "[a.jpg]\nfaces=abc\n", idx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"pmeta/Carol"}, records[0].Tags)
}

func TestExtractRecords_MalformedStopsAfterEarlierRecords(t *testing.T) {
	text := "[a.jpg]\nkeywords=one\n"
	_, _, err := extract(t, "garbage\n"+text, nil)
	require.ErrorIs(t, err, ErrMalformedSidecar)

	records, stats, err := extract(t, text, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, stats.Records)
}

func TestExtractRecords_TrailingHeaderOnly(t *testing.T) {
	records, _, err := extract(t, "[a.jpg]\nkeywords=one\n[b.jpg]\n", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.jpg", records[0].ImageName)
}

func TestWalkRecords_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	r := ParseSidecar("test.ini", "[a.jpg]\nkeywords=1\n[b.jpg]\nkeywords=2\n").Lines()

	_, err := WalkRecords(r, nil, ExtractOptions{}, func(Record) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
