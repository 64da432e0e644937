package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type slotsFile struct {
	Slots []Slot `yaml:"slots"`
}

// ParseSlots reads a slot list in YAML:
//
//	slots:
//	  - slot_name: A1
//	    level: "1"
//	    type: standard
func ParseSlots(r io.Reader) ([]Slot, error) {
	var file slotsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse slots: %w", err)
	}
	for i, slot := range file.Slots {
		if slot.SlotName == "" {
			return nil, fmt.Errorf("slot %d: slot_name is required", i+1)
		}
		if slot.Status != "" && slot.Status != SlotStatusAvailable && slot.Status != SlotStatusReserved {
			return nil, fmt.Errorf("slot %q: unknown status %q", slot.SlotName, slot.Status)
		}
	}
	return file.Slots, nil
}

// SeedSlotsFile upserts every slot listed in the YAML file at path.
func SeedSlotsFile(ctx context.Context, provider Provider, path string) ([]Slot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	slots, err := ParseSlots(f)
	if err != nil {
		return nil, err
	}

	for i := range slots {
		if err := provider.UpsertSlot(ctx, &slots[i]); err != nil {
			return nil, err
		}
	}
	return slots, nil
}
