// Command minutiae extracts landmark sets from image files and compares them
// offline.
//
//	minutiae extract -image f.png -skeleton s.png [-mask m.png] -id 101_1 [-group 101] -out 101_1.cbor
//	minutiae compare a.cbor b.cbor
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/identify"
	"github.com/high-horse/fingerprint-server/internal/imageio"
	"github.com/high-horse/fingerprint-server/internal/primitives"
	"github.com/high-horse/fingerprint-server/internal/store"
	"github.com/high-horse/fingerprint-server/internal/template"
)

var errUsage = errors.New("usage: minutiae extract|compare [flags]")

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "extract":
		return extract(args[1:], stdout)
	case "compare":
		return compare(args[1:], stdout)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func service(configPath string) (*identify.Service, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	return identify.New(store.NewMemory(), identify.OptionsFrom(cfg)), nil
}

func extract(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	imagePath := fs.String("image", "", "fingerprint image")
	skeletonPath := fs.String("skeleton", "", "skeleton image, ridges bright")
	maskPath := fs.String("mask", "", "foreground mask; estimated from -image when empty")
	imageID := fs.String("id", "", "image id")
	groupID := fs.String("group", "", "group id")
	out := fs.String("out", "", "output CBOR file")
	maskOut := fs.String("mask-out", "", "write the foreground mask as PGM")
	threshold := fs.Uint("threshold", 127, "skeleton and mask threshold")
	configPath := fs.String("config", "", "TOML configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" || *skeletonPath == "" || *imageID == "" || *out == "" {
		return errors.New("extract: -image, -skeleton, -id and -out are required")
	}
	svc, err := service(*configPath)
	if err != nil {
		return err
	}

	img, err := imageio.Load(*imagePath)
	if err != nil {
		return err
	}
	skeletonImg, err := imageio.Load(*skeletonPath)
	if err != nil {
		return err
	}
	skeleton := imageio.ToBool(skeletonImg, uint8(*threshold))

	var (
		set  *template.LandmarkSet
		mask *primitives.BoolMatrix
	)
	if *maskPath != "" {
		maskImg, err := imageio.Load(*maskPath)
		if err != nil {
			return err
		}
		mask = imageio.ToBool(maskImg, uint8(*threshold))
		if set, err = svc.ExtractWithMask(*imageID, mask, skeleton); err != nil {
			return err
		}
	} else {
		ex, err := svc.Extract(*imageID, img, skeleton)
		if err != nil {
			return err
		}
		set, mask = ex.Set, ex.Mask
		if ex.HasPeriod {
			fmt.Fprintf(stdout, "ridge period %.2f\n", ex.Period)
		}
	}
	set.GroupID = *groupID

	data, err := template.Marshal(set)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	if *maskOut != "" {
		if err := writeMask(*maskOut, mask); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "%s: %d minutiae, shift (%d,%d)\n", set.ImageID, len(set.Minutiae), set.Shift.X, set.Shift.Y)
	return nil
}

func writeMask(path string, mask *primitives.BoolMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imageio.EncodePGM(f, imageio.FromBool(mask)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func compare(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("compare: want two CBOR files")
	}
	svc, err := service(*configPath)
	if err != nil {
		return err
	}

	sets := make([]*template.LandmarkSet, 2)
	for i, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if sets[i], err = template.Unmarshal(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	res, err := svc.Compare(context.Background(), sets[0], sets[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s %.2f (%d candidates)\n", res.ProbeID, res.GalleryID, res.Score, res.Candidates)
	return nil
}
