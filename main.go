package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/pkg/export"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
	"github.com/df07/go-subsurface-lut/pkg/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// bakeFlags holds the raw command line values of the bake command
type bakeFlags struct {
	configPath string
	resolution int
	falloff    string
	keepDirect bool
	kernel     string
	transfer   string
	output     string
	preview    string
	workers    int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lutbake",
		Short:         "Bake pre-integrated subsurface scattering lookup textures",
		SilenceUsage: true,
	}
	root.AddCommand(newBakeCmd(&bakeFlags{}), newProfileCmd(), newKernelsCmd())
	return root
}

// newBakeCmd returns the bake command, binding its flags to f
func newBakeCmd(f *bakeFlags) *cobra.Command {
	defaults := bake.DefaultRequest()

	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Integrate the LUT and export it as a TGA asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(cmd, *f)
			if err != nil {
				return err
			}
			return runBake(req, *f, core.NewDefaultLogger(f.verbose))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "YAML bake request file; flags override its values")
	flags.IntVarP(&f.resolution, "resolution", "r", defaults.Resolution, "LUT resolution in texels per side")
	flags.StringVar(&f.falloff, "falloff", "1,0.3,0.2", "Falloff tint as r,g,b")
	flags.BoolVar(&f.keepDirect, "keep-direct-bounce", defaults.KeepDirectBounce, "Keep the direct diffuse term in the LUT")
	flags.StringVarP(&f.kernel, "kernel", "k", defaults.Kernel, "Kernel name or path to a YAML scattering profile")
	flags.StringVar(&f.transfer, "transfer", defaults.Transfer, "Export transfer function: linear or srgb")
	flags.StringVarP(&f.output, "output", "o", defaults.Output, "Path of the exported TGA")
	flags.StringVar(&f.preview, "preview", "", "Also write the full resolution result as a 16-bit PNG")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Number of parallel workers (0 = use CPU count)")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

// buildRequest overlays the flags the user set on top of the request file,
// which itself sits on top of the defaults
func buildRequest(cmd *cobra.Command, f bakeFlags) (bake.Request, error) {
	req := bake.DefaultRequest()
	if f.configPath != "" {
		var err error
		if req, err = bake.LoadRequest(f.configPath); err != nil {
			return bake.Request{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		req.Resolution = f.resolution
	}
	if flags.Changed("falloff") {
		c, err := core.ParseVec3(f.falloff)
		if err != nil {
			return bake.Request{}, fmt.Errorf("invalid --falloff: %w", err)
		}
		req.FalloffColor = c.Array()
	}
	if flags.Changed("keep-direct-bounce") {
		req.KeepDirectBounce = f.keepDirect
	}
	if flags.Changed("kernel") {
		req.Kernel = f.kernel
	}
	if flags.Changed("transfer") {
		req.Transfer = f.transfer
	}
	if flags.Changed("output") {
		req.Output = f.output
	}
	return req, nil
}

func runBake(req bake.Request, f bakeFlags, logger *logrus.Logger) error {
	transfer, err := export.ParseTransfer(req.Transfer)
	if err != nil {
		return err
	}

	opts := session.DefaultOptions()
	opts.KernelRef = req.Kernel
	opts.Integrator.NumWorkers = f.workers
	opts.Export.Transfer = transfer
	opts.Logger = logger

	s := session.Open(opts)
	defer s.Close()

	if _, err := s.Configure(req.Resolution, req.Falloff(), req.KeepDirectBounce); err != nil {
		return err
	}
	stats, err := s.Bake()
	if err != nil {
		return err
	}

	if f.preview != "" {
		if err := writePreview(s, f.preview); err != nil {
			return err
		}
		logger.WithField("path", f.preview).Info("Preview saved")
	}

	asset, err := s.Save(req.Output)
	if errors.Is(err, core.ErrNothingToExport) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Baked %dx%d LUT in %v, exported %dx%d to %s\n",
		stats.Resolution, stats.Resolution, stats.Duration.Round(time.Millisecond),
		asset.Image.Bounds().Dx(), asset.Image.Bounds().Dy(), req.Output)
	return nil
}

func writePreview(s *session.Session, path string) error {
	img, ok := s.Preview()
	if !ok {
		return core.ErrNothingToExport
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

func newProfileCmd() *cobra.Command {
	var (
		kernelRef string
		maxRadius float64
		output    string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Plot the radial scattering profile of a kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := profileFor(kernelRef)
			if err != nil {
				return err
			}
			if err := integrator.PlotProfile(p, maxRadius, output); err != nil {
				return err
			}
			fmt.Printf("Profile %q plotted to %s\n", p.Name, output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&kernelRef, "kernel", "k", integrator.DefaultKernel, "Kernel name or path to a YAML scattering profile")
	flags.Float64Var(&maxRadius, "max-radius", 4, "Largest scattering distance to plot, in mm")
	flags.StringVarP(&output, "output", "o", "profile.png", "Path of the chart image")
	return cmd
}

// profileFor returns the scattering profile behind a kernel reference
func profileFor(ref string) (integrator.Profile, error) {
	k, err := integrator.Load(ref)
	if err != nil {
		return integrator.Profile{}, err
	}
	pk, ok := k.(*integrator.PreIntegrated)
	if !ok {
		return integrator.Profile{}, fmt.Errorf("kernel %q has no scattering profile", k.Name())
	}
	return pk.Profile(), nil
}

func newKernelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kernels",
		Short: "List the built-in kernels",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range integrator.Names() {
				marker := " "
				if name == integrator.DefaultKernel {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			fmt.Fprintln(out, strings.Repeat("-", 24))
			fmt.Fprintln(out, "Any YAML profile path is also accepted")
		},
	}
}
