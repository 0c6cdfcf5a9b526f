package albums

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"crate/internal/barcode"
	"crate/internal/fileutil"
	"crate/internal/logging"
	"crate/internal/services"
)

// Inventory is the digest of every album record.
type Inventory struct {
	Albums      []Record `json:"albums"`
	LastUpdated string   `json:"last_updated"`
}

// LoadInventory reads the digest at path. A missing file yields an empty
// inventory; a corrupt file is an error so it is never silently replaced.
func LoadInventory(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if missing(err) {
			return Inventory{Albums: []Record{}}, nil
		}
		return Inventory{}, services.Wrap(services.ErrPersistence, stage, "load inventory", path, err)
	}
	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return Inventory{}, services.Wrap(services.ErrPersistence, stage, "load inventory", "inventory is not valid JSON; fix or move it aside", err)
	}
	if inv.Albums == nil {
		inv.Albums = []Record{}
	}
	return inv, nil
}

// Merge appends records not already present. Records are keyed by normalized
// barcode; records without one are compared by value. It returns the number
// of records added.
func (inv *Inventory) Merge(records []Record) int {
	seen := make(map[string]struct{}, len(inv.Albums)+len(records))
	for _, rec := range inv.Albums {
		seen[inventoryKey(rec)] = struct{}{}
	}
	added := 0
	for _, rec := range records {
		key := inventoryKey(rec)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		inv.Albums = append(inv.Albums, rec)
		added++
	}
	return added
}

func inventoryKey(rec Record) string {
	if code := barcode.Normalize(rec.Barcode); code != "" {
		return "barcode:" + code
	}
	data, _ := json.Marshal(rec)
	return "record:" + string(data)
}

// UpdateInventory merges every album record into the digest and rewrites it.
// It returns the number of records added and the new total.
func (l *Library) UpdateInventory(ctx context.Context) (int, int, error) {
	path := l.InventoryPath()
	inv, err := LoadInventory(path)
	if err != nil {
		return 0, 0, err
	}
	matches, err := l.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	records := make([]Record, len(matches))
	for i, m := range matches {
		records[i] = m.Record
	}

	added := inv.Merge(records)
	inv.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := encode(inv)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, stage, "update inventory", "encode inventory", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return 0, 0, services.Wrap(services.ErrPersistence, stage, "update inventory", path, err)
	}
	l.logger.Info("inventory updated",
		logging.Int("added", added),
		logging.Int("total", len(inv.Albums)),
		logging.String("path", path),
		logging.String(logging.FieldEventType, "inventory_updated"),
	)
	return added, len(inv.Albums), nil
}
