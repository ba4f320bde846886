package services

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// endCardCopy is the call-to-action text drawn per content type.
type endCardCopy struct {
	headline string
	footer   string
}

var endCardTexts = map[models.ContentType]endCardCopy{
	models.ContentDailyUpdate: {"Follow for daily updates", "New video every day"},
	models.ContentBigTech:     {"Follow for tech news", "New video every day"},
	models.ContentLeaderQuote: {"Follow for daily wisdom", "A new quote every day"},
	models.ContentArxivPaper:  {"Follow for AI research", "Papers explained simply"},
	models.ContentBookReview:  {"Follow for book picks", "A new book every week"},
}

// EndCardService renders the closing card shown after the last scene.
// Cards are drawn once per content type and cached as PNGs; rendering
// requires a TTF in <assetsDir>/fonts, otherwise the card is a plain
// gradient without text.
type EndCardService struct {
	cardsDir   string
	fontPath   string
	width      int
	height     int
	topSafe    float64
	bottomSafe float64
}

func NewEndCardService(assetsDir string, settings models.RenderSettings, profile RenderProfile) *EndCardService {
	return &EndCardService{
		cardsDir:   filepath.Join(assetsDir, "end_screens"),
		fontPath:   findFont(filepath.Join(assetsDir, "fonts")),
		width:      settings.Width,
		height:     settings.Height,
		topSafe:    profile.TopSafePct,
		bottomSafe: profile.BottomSafePct,
	}
}

func findFont(dir string) string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.ttf"))
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// CardFor returns the PNG path for a content type, drawing it on first use.
func (e *EndCardService) CardFor(contentType models.ContentType) (string, error) {
	if err := os.MkdirAll(e.cardsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create end card dir: %w", err)
	}

	path := filepath.Join(e.cardsDir, fmt.Sprintf("%s_%dx%d.png", contentType, e.width, e.height))
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := e.draw(contentType, path); err != nil {
		return "", err
	}
	log.Printf("[EndCard] Generated card for %s at %s", contentType, path)
	return path, nil
}

func (e *EndCardService) draw(contentType models.ContentType, outputPath string) error {
	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))

	// Vertical gradient in the content type's palette.
	top, bottom := endCardColors(contentType)
	for y := 0; y < e.height; y++ {
		t := float64(y) / float64(e.height)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < e.width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	copyText, ok := endCardTexts[contentType]
	if !ok {
		copyText = endCardTexts[models.ContentDailyUpdate]
	}

	if e.fontPath != "" {
		if err := e.drawText(img, copyText); err != nil {
			log.Printf("[EndCard] Text rendering failed, using plain card: %v", err)
		}
	}

	f, err := os.Create(outputPath + ".tmp")
	if err != nil {
		return fmt.Errorf("failed to create end card file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(outputPath + ".tmp")
		return fmt.Errorf("failed to encode end card: %w", err)
	}
	f.Close()
	return os.Rename(outputPath+".tmp", outputPath)
}

func (e *EndCardService) drawText(img *image.RGBA, copyText endCardCopy) error {
	data, err := os.ReadFile(e.fontPath)
	if err != nil {
		return fmt.Errorf("failed to read font: %w", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	headlineSize := float64(e.width) / 14
	footerSize := headlineSize * 0.55

	// Text sits centered in the band between the top and bottom safe
	// zones, clear of platform UI chrome on both edges.
	centerY := safeBandCenter(e.height, e.topSafe, e.bottomSafe)

	if err := e.drawLine(img, parsed, copyText.headline, headlineSize, centerY); err != nil {
		return err
	}
	return e.drawLine(img, parsed, copyText.footer, footerSize, centerY+int(headlineSize*1.8))
}

// safeBandCenter is the vertical midpoint of the frame region left after
// reserving topPct of the height at the top and bottomPct at the bottom.
func safeBandCenter(height int, topPct, bottomPct float64) int {
	top := float64(height) * topPct
	bottom := float64(height) * (1 - bottomPct)
	if bottom <= top {
		return height / 2
	}
	return int((top + bottom) / 2)
}

func (e *EndCardService) drawLine(img *image.RGBA, parsed *opentype.Font, text string, size float64, baselineY int) error {
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(e.width) - width) / 2,
		Y: fixed.I(baselineY),
	}
	d.DrawString(text)
	return nil
}

func endCardColors(contentType models.ContentType) (color.RGBA, color.RGBA) {
	switch contentType {
	case models.ContentLeaderQuote:
		return color.RGBA{R: 0x41, G: 0x29, B: 0x5a, A: 255}, color.RGBA{R: 0x2f, G: 0x07, B: 0x43, A: 255}
	case models.ContentArxivPaper:
		return color.RGBA{R: 0x00, G: 0x04, B: 0x28, A: 255}, color.RGBA{R: 0x00, G: 0x4e, B: 0x92, A: 255}
	case models.ContentBookReview:
		return color.RGBA{R: 0x3e, G: 0x27, B: 0x23, A: 255}, color.RGBA{R: 0x79, G: 0x55, B: 0x48, A: 255}
	default:
		return color.RGBA{R: 0x0f, G: 0x20, B: 0x27, A: 255}, color.RGBA{R: 0x2c, G: 0x53, B: 0x64, A: 255}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
