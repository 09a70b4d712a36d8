// Command capinspect prints the climate mode model derived from the
// capabilities of each device in a device file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/devices"
	"github.com/frostdev-ops/pma-goveelife/pkg/logger"
)

type inspection struct {
	Device    string                  `json:"device"`
	SKU       string                  `json:"sku"`
	Type      string                  `json:"type"`
	EntityID  string                  `json:"entity_id"`
	ModeModel goveelife.ModeModelView `json:"mode_model"`
}

func main() {
	file := flag.String("file", "configs/devices.example.yaml", "device file to inspect")
	deviceID := flag.String("device", "", "only inspect this device id")
	logLevel := flag.String("log-level", "warn", "log level for capability parsing warnings")
	flag.Parse()

	log := logger.NewWithOutput(*logLevel, "text", os.Stderr)

	loaded, err := devices.LoadFile(*file)
	if err != nil {
		log.WithError(err).Fatal("Failed to load device file")
	}

	out := make([]inspection, 0, len(loaded))
	for _, device := range loaded {
		config := device.Config
		if *deviceID != "" && config.Device != *deviceID {
			continue
		}
		model := goveelife.BuildModeModel(config.Capabilities, log.WithField("device_id", config.Device))
		out = append(out, inspection{
			Device:    config.Device,
			SKU:       config.SKU,
			Type:      config.Type,
			EntityID:  goveelife.EntityID(config.Device),
			ModeModel: model.View(),
		})
	}
	if *deviceID != "" && len(out) == 0 {
		fmt.Fprintf(os.Stderr, "device %s not found in %s\n", *deviceID, *file)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		log.WithError(err).Fatal("Failed to write mode models")
	}
}
