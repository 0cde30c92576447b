package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	padding     = 8
	titleHeight = 28
	labelHeight = 18
	decodeLimit = 4
)

var (
	backgroundColor  = color.RGBA{R: 0x1b, G: 0x1d, B: 0x23, A: 0xff}
	emptyTileColor   = color.RGBA{R: 0x2c, G: 0x30, B: 0x38, A: 0xff}
	missingTileColor = color.RGBA{R: 0x4a, G: 0x2f, B: 0x35, A: 0xff}
	textColor        = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
)

// GridRenderer draws one row of portrait tiles per squad and encodes the
// result as PNG.
type GridRenderer struct {
	images   fs.FS
	tileSize int
	log      logrus.FieldLogger
}

func NewGridRenderer(images fs.FS, tileSize int, log logrus.FieldLogger) *GridRenderer {
	if tileSize <= 0 {
		tileSize = 96
	}
	if log == nil {
		log = logrus.New()
	}
	return &GridRenderer{images: images, tileSize: tileSize, log: log}
}

func (r *GridRenderer) ContentType() string {
	return "image/png"
}

// Size returns the pixel dimensions of the rendered view.
func (r *GridRenderer) Size(view TeamSetView) (int, int) {
	cols := 0
	for _, sq := range view.Squads {
		if len(sq.Slots) > cols {
			cols = len(sq.Slots)
		}
	}
	w := padding + cols*(r.tileSize+padding)
	h := titleHeight + len(view.Squads)*(labelHeight+r.tileSize+padding) + padding
	return w, h
}

func (r *GridRenderer) Render(ctx context.Context, view TeamSetView) ([]byte, error) {
	portraits, err := r.loadPortraits(ctx, view)
	if err != nil {
		return nil, err
	}

	w, h := r.Size(view)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)
	drawText(canvas, view.Title, padding, titleHeight-10)

	y := titleHeight
	for _, sq := range view.Squads {
		drawText(canvas, fmt.Sprintf("%s  %.1f", sq.Label, sq.Score), padding, y+labelHeight-5)
		y += labelHeight

		x := padding
		for _, cell := range sq.Slots {
			tile := image.Rect(x, y, x+r.tileSize, y+r.tileSize)
			switch img, ok := portraits[cell.Image]; {
			case cell.CharacterID == "":
				draw.Draw(canvas, tile, image.NewUniform(emptyTileColor), image.Point{}, draw.Src)
			case ok:
				draw.CatmullRom.Scale(canvas, tile, img, img.Bounds(), draw.Over, nil)
			default:
				draw.Draw(canvas, tile, image.NewUniform(missingTileColor), image.Point{}, draw.Src)
				drawText(canvas, truncate(cell.Name, r.tileSize/7), x+3, y+r.tileSize/2)
			}
			x += r.tileSize + padding
		}
		y += r.tileSize + padding
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// loadPortraits decodes every distinct image reference in the view. Missing
// or unreadable files are left out and drawn as placeholders.
func (r *GridRenderer) loadPortraits(ctx context.Context, view TeamSetView) (map[string]image.Image, error) {
	refs := make(map[string]struct{})
	for _, sq := range view.Squads {
		for _, cell := range sq.Slots {
			if cell.Image != "" {
				refs[cell.Image] = struct{}{}
			}
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[string]image.Image, len(refs))
	)
	if r.images == nil || len(refs) == 0 {
		return out, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeLimit)
	for ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := r.decode(ref)
			if err != nil {
				r.log.WithField("image", ref).Debugf("portrait unavailable: %v", err)
				return nil
			}
			mu.Lock()
			out[ref] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GridRenderer) decode(ref string) (image.Image, error) {
	f, err := r.images.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func drawText(dst draw.Image, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
