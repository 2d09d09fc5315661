package flight

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTicketPrice_CaseInsensitive(t *testing.T) {
	for _, city := range []string{"LONDON", "london", "London", "  London "} {
		assert.Equal(t, "$799", GetTicketPrice(city), city)
	}
}

func TestGetTicketPrice_UnknownCity(t *testing.T) {
	assert.Equal(t, UnknownPrice, GetTicketPrice("Atlantis"))
	assert.Equal(t, UnknownPrice, GetTicketPrice(""))
}

func TestGetTicketPrice_AllDestinations(t *testing.T) {
	want := map[string]string{
		"Paris": "$899", "Tokyo": "$1,400", "Berlin": "$499", "Seoul": "$1,599", "Mars": "$2,250,000",
	}
	for city, price := range want {
		assert.Equal(t, price, GetTicketPrice(city), city)
	}
}

func callPrice(t *testing.T, r *tools.Registry, args string) *tools.Result {
	t.Helper()
	res, err := r.Execute(context.Background(), llm.ToolCall{
		ID: "call_1", Name: "get_ticket_price", Arguments: json.RawMessage(args),
	})
	require.NoError(t, err)
	return res
}

func TestPriceTool_ResultPayload(t *testing.T) {
	r, err := NewRegistry(DefaultPrices, nil)
	require.NoError(t, err)

	res := callPrice(t, r, `{"destination":"Paris"}`)

	assert.JSONEq(t, `{"destination":"Paris","price":"$899"}`, res.Content)
	assert.Contains(t, res.Content, `"price":"$899"`)
	assert.Empty(t, res.Artifacts)
}

func TestPriceTool_UnknownIsAResultNotAnError(t *testing.T) {
	r, err := NewRegistry(DefaultPrices, nil)
	require.NoError(t, err)

	res := callPrice(t, r, `{"destination":"Atlantis"}`)

	assert.JSONEq(t, `{"destination":"Atlantis","price":"Unknown"}`, res.Content)
}

type stubArtist struct {
	prompts []string
	err     error
}

func (a *stubArtist) GenerateImage(_ context.Context, prompt string) (*tools.Artifact, error) {
	a.prompts = append(a.prompts, prompt)
	if a.err != nil {
		return nil, a.err
	}
	return &tools.Artifact{Kind: "image", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func TestPriceTool_AttachesDestinationImage(t *testing.T) {
	artist := &stubArtist{}
	r, err := NewRegistry(DefaultPrices, artist)
	require.NoError(t, err)

	res := callPrice(t, r, `{"destination":"Tokyo"}`)

	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, "image", res.Artifacts[0].Kind)
	require.Len(t, artist.prompts, 1)
	assert.Contains(t, artist.prompts[0], "vacation in Tokyo")
}

func TestPriceTool_ImageFailureKeepsPrice(t *testing.T) {
	r, err := NewRegistry(DefaultPrices, &stubArtist{err: errors.New("content policy")})
	require.NoError(t, err)

	res := callPrice(t, r, `{"destination":"Berlin"}`)

	assert.JSONEq(t, `{"destination":"Berlin","price":"$499"}`, res.Content)
	assert.Empty(t, res.Artifacts)
}
