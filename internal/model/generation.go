package model

type AspectRatio string

const (
	AspectSquare    = AspectRatio("1:1")
	AspectPortrait  = AspectRatio("3:4")
	AspectLandscape = AspectRatio("4:3")
	AspectWide      = AspectRatio("16:9")
	AspectTall      = AspectRatio("9:16")
)

func ParseAspectRatio(s string) AspectRatio {
	switch AspectRatio(s) {
	case AspectPortrait, AspectLandscape, AspectWide, AspectTall:
		return AspectRatio(s)
	default:
		return AspectSquare
	}
}

type ImageStyle string

const (
	StyleNone         = ImageStyle("None")
	StyleCinematic    = ImageStyle("Cinematic")
	StylePhotography  = ImageStyle("Photography")
	StyleAnime        = ImageStyle("Anime")
	StyleFantasy      = ImageStyle("Fantasy Art")
	StyleIllustration = ImageStyle("Illustration")
	StyleThreeD       = ImageStyle("3D Render")
)

type AiModel string

const (
	ModelP3          = AiModel("Dorak P3")
	Model100k        = AiModel("Dorak 100k")
	ModelInfinity    = AiModel("Dorak Infinity")
	ModelResearch    = AiModel("Research")
	ModelCreateImage = AiModel("Create Image")
)

// GenerationRequest describes one image batch submission. It lives only for
// the duration of the submission.
type GenerationRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	Quantity    int
	Style       ImageStyle
	Colors      string
	Character   *InlineData
	Inspiration *InlineData
}
