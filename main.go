package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/propertypartner/social-pipeline/internal/pipeline"
	"github.com/propertypartner/social-pipeline/internal/webapi"
)

func main() {
	app := &cli.App{
		Name:  "social-pipeline",
		Usage: "Turn a TradeMe rental listing into Facebook and Instagram posts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "Path to the YAML config file"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Log errors only"},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Full pipeline: scrape, prepare images, generate copy, publish",
				ArgsUsage: "<listing URL>",
				Action:    pipeline.RunAction,
			},
			{
				Name:      "scrape",
				Usage:     "Render and extract one listing, print the record",
				ArgsUsage: "<listing URL>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json or yaml"},
				},
				Action: pipeline.ScrapeAction,
			},
			{
				Name:  "images",
				Usage: "Download, rank and stage listing photos",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listing-id", Usage: "Numeric listing ID", Required: true},
					&cli.StringFlag{Name: "urls", Usage: "Comma-separated image URLs", Required: true},
					&cli.BoolFlag{Name: "upload", Usage: "Upload the staged directory to the image host"},
				},
				Action: pipeline.ImagesAction,
			},
			{
				Name:  "copy",
				Usage: "Generate Facebook and Instagram copy from a listing record",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listing", Usage: "Path to a listing JSON file (default: stdin)"},
				},
				Action: pipeline.CopyAction,
			},
			{
				Name:  "publish",
				Usage: "Post hosted image URLs with given captions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "image-urls", Usage: "Comma-separated public image URLs", Required: true},
					&cli.StringFlag{Name: "facebook", Usage: "Facebook post text"},
					&cli.StringFlag{Name: "instagram", Usage: "Instagram caption"},
				},
				Action: pipeline.PublishAction,
			},
			{
				Name:  "cleanup",
				Usage: "Remove staged images locally (and optionally remotely)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listing-id", Usage: "Numeric listing ID (default: all local tm-* dirs)"},
					&cli.BoolFlag{Name: "remote", Usage: "Also delete the listing's directory on the image host"},
				},
				Action: pipeline.CleanupAction,
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API used by the web frontend",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8000", Usage: "Listen address"},
				},
				Action: webapi.ServeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
