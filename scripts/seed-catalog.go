package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Writes a directory of placeholder portraits named in the catalog layout so
// the server can run without real artwork.

var (
	factions = []string{"elysion", "missilis", "tetra", "pilgrim", "abnormal"}
	rarities = []string{"ssr", "sr", "r"}
	bursts   = []string{"b1", "b2", "b3", "a"}
	roles    = []string{"atk", "def", "sp"}
	weapons  = []string{"ar", "smg", "snr", "rl", "sg", "mg"}
	elements = []string{"fire", "water", "wind", "iron", "electric"}
	names    = []string{"Rapi", "Anis", "Neon", "Marian", "Crown", "Liter", "Noel", "Helm", "Scarlet", "Modernia",
		"Drake", "Laplace", "Maxwell", "Privaty", "Yulha", "Rupee", "Volume", "Tia", "Naga", "Dorothy"}
)

func main() {
	dir := flag.String("dir", "image", "Output directory")
	count := flag.Int("count", 40, "Number of portraits")
	extended := flag.Bool("extended", false, "Include the element field")
	size := flag.Int("size", 128, "Portrait size in pixels")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fmt.Printf("Failed to create %s: %v\n", *dir, err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	pick := func(values []string) string { return values[rng.Intn(len(values))] }

	for i := 1; i <= *count; i++ {
		name := names[(i-1)%len(names)]
		if i > len(names) {
			name = fmt.Sprintf("%s_Mk%d", name, (i-1)/len(names)+1)
		}

		fields := []string{fmt.Sprint(i), fmt.Sprint(rng.Intn(60) + 1)}
		if *extended {
			fields = append(fields, pick(elements))
		}
		fields = append(fields, pick(factions), pick(rarities), pick(bursts), pick(roles), pick(weapons), name)
		file := strings.Join(fields, "_") + ".png"

		if err := writePortrait(filepath.Join(*dir, file), name, *size, rng); err != nil {
			fmt.Printf("  [%d/%d] FAILED %s: %v\n", i, *count, file, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s\n", i, *count, file)
	}

	fmt.Println()
	fmt.Printf("Done! Start the server with ROSTER_CATALOG_DIR=%s\n", *dir)
}

func writePortrait(path, name string, size int, rng *rand.Rand) error {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := color.RGBA{R: uint8(64 + rng.Intn(160)), G: uint8(64 + rng.Intn(160)), B: uint8(64 + rng.Intn(160)), A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	label := strings.ToUpper(name[:1])
	if len(name) > 1 {
		label += name[1:2]
	}
	width := d.MeasureString(label).Ceil()
	d.Dot = fixed.P((size-width)/2, size/2+4)
	d.DrawString(label)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
