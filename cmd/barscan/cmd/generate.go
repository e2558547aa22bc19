package cmd

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/encode"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		out         string
		addon       string
		moduleWidth int
		height      int
		quietZone   int
	)

	cmd := &cobra.Command{
		Use:   "generate TYPE DATA",
		Short: "Render a linear barcode to an image file",
		Long: `Render an EAN-13, EAN-8, UPC-A, UPC-E, ISBN or Code 128 barcode.
EAN/UPC data may omit the check digit. The image format follows the
extension of the output file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			typ, ok := barscan.ParseType(args[0])
			if !ok || typ <= barscan.Partial {
				return fmt.Errorf("%w: unknown symbology %q", barscan.ErrUnsupported, args[0])
			}
			data := args[1]
			switch len(addon) {
			case 0:
			case 2:
				typ |= barscan.Addon2
			case 5:
				typ |= barscan.Addon5
			default:
				return fmt.Errorf("%w: add-on must have 2 or 5 digits", barscan.ErrFormat)
			}
			data += addon

			m, err := encode.Encode(typ, data)
			if err != nil {
				return err
			}
			if moduleWidth < 1 || height < 1 || quietZone < 0 {
				return fmt.Errorf("%w: bad image geometry", barscan.ErrInvalidConfig)
			}
			img := encode.Render(m, moduleWidth, height, quietZone)
			if err := imaging.Save(img, out); err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			a.log.Info("barcode generated", "type", typ.String(), "file", out,
				"modules", len(m), "width", img.Bounds().Dx())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output image file (png, jpg, gif, bmp, tif)")
	f.StringVar(&addon, "addon", "", "EAN-2 or EAN-5 add-on digits")
	f.IntVar(&moduleWidth, "module-width", 2, "width of a module in pixels")
	f.IntVar(&height, "height", 60, "bar height in pixels")
	f.IntVar(&quietZone, "quiet-zone", encode.DefaultQuietZone, "blank margin in modules")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
