// Package model defines the core entities of the spend estimation engine:
// raw sightings, canonical observations, advertisers, campaigns, spend
// estimates, calibration benchmarks and signal composites.
package model

// Channel is a distinct ad-serving surface.
type Channel string

const (
	ChannelSearch  Channel = "search"
	ChannelDisplay Channel = "display"
	ChannelSocial  Channel = "social"
	ChannelVideo   Channel = "video"
)

// AllChannels lists every supported channel.
func AllChannels() []Channel {
	return []Channel{ChannelSearch, ChannelDisplay, ChannelSocial, ChannelVideo}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSearch, ChannelDisplay, ChannelSocial, ChannelVideo:
		return true
	}
	return false
}

// IsCatalog reports whether the channel is observed through a browsable
// creative catalog rather than direct simulated exposure. Catalog channels
// have no contact-frequency signal.
func (c Channel) IsCatalog() bool {
	return c == ChannelSocial
}

// UsesCPV reports whether the channel's unit cost is per view rather than
// per click.
func (c Channel) UsesCPV() bool {
	return c == ChannelVideo
}
