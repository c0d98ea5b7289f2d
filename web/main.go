package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/df07/go-subsurface-lut/pkg/core"
	"github.com/df07/go-subsurface-lut/web/server"
)

func main() {
	var (
		port    int
		workers int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "lutbake-web",
		Short:        "Serve LUT previews and exports over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := core.NewDefaultLogger(verbose)
			webServer := server.NewServer(port, workers, logger)
			defer webServer.Close()

			logger.Info("Subsurface LUT Preview Server")
			logger.Infof("Visit http://localhost:%d to start baking", port)
			return webServer.Start()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
