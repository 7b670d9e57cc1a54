package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adlens/spend-cli/internal/model"
)

func TestCreativeHash_RefBased(t *testing.T) {
	a := &model.RawSighting{Channel: model.ChannelSearch, CreativeRef: strPtr("img-1"), AdText: "A"}
	b := &model.RawSighting{Channel: model.ChannelSearch, CreativeRef: strPtr("img-1"), AdText: "totally different text"}
	c := &model.RawSighting{Channel: model.ChannelSearch, CreativeRef: strPtr("img-2"), AdText: "A"}

	// Same creative ref wins regardless of text.
	assert.Equal(t, CreativeHash(a), CreativeHash(b))
	assert.NotEqual(t, CreativeHash(a), CreativeHash(c))
}

func TestCreativeHash_TextFallback(t *testing.T) {
	a := &model.RawSighting{Channel: model.ChannelDisplay, AdText: "Big  Summer   Sale", LandingURL: "https://www.example.com/sale/"}
	b := &model.RawSighting{Channel: model.ChannelDisplay, AdText: "big summer sale", LandingURL: "http://example.com/sale?utm=x"}

	// Whitespace, case, scheme, www and query differences collapse.
	assert.Equal(t, CreativeHash(a), CreativeHash(b))
}

func TestCreativeHash_ChannelScoped(t *testing.T) {
	a := &model.RawSighting{Channel: model.ChannelSearch, CreativeRef: strPtr("img-1")}
	b := &model.RawSighting{Channel: model.ChannelVideo, CreativeRef: strPtr("img-1")}

	assert.NotEqual(t, CreativeHash(a), CreativeHash(b))
}
