package models

// Icon is the closed set of card artwork variants.
type Icon string

const (
	IconDefault  Icon = "default"
	IconAI       Icon = "ai"
	IconDoge     Icon = "doge"
	IconShib     Icon = "shib"
	IconPepe     Icon = "pepe"
	IconFloki    Icon = "floki"
	IconBabyDoge Icon = "babydoge"
	IconBTC      Icon = "btc"
	IconETH      Icon = "eth"
)

// IconAsset describes how a front-end renders an icon.
type IconAsset struct {
	ImageURL string `json:"image_url,omitempty"`
	Inline   string `json:"inline,omitempty"` // name of an inline SVG component
}

var iconAssets = map[Icon]IconAsset{
	IconAI:       {Inline: "neural-network"},
	IconDoge:     {ImageURL: "https://cryptologos.cc/logos/dogecoin-doge-logo.png"},
	IconShib:     {ImageURL: "https://cryptologos.cc/logos/shiba-inu-shib-logo.png"},
	IconPepe:     {ImageURL: "https://assets.coingecko.com/coins/images/29850/large/pepe-token.jpeg"},
	IconFloki:    {ImageURL: "https://cryptologos.cc/logos/floki-inu-floki-logo.png"},
	IconBabyDoge: {ImageURL: "https://assets.coingecko.com/coins/images/16125/large/babydoge.jpg"},
	IconBTC:      {ImageURL: "https://cryptologos.cc/logos/bitcoin-btc-logo.png"},
	IconETH:      {ImageURL: "https://cryptologos.cc/logos/ethereum-eth-logo.png"},
}

// Asset resolves the icon through the lookup table. Unknown or empty icons
// resolve to the generic placeholder.
func (i Icon) Asset() IconAsset {
	if a, ok := iconAssets[i]; ok {
		return a
	}
	return IconAsset{Inline: "placeholder"}
}
