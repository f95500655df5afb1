package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"strings"
	"text/tabwriter"

	"msmehub.io/platform/internal/store"
)

// InventoryStore is the persistence boundary for the inventory table.
// Implemented by store.SQLiteStore.
type InventoryStore interface {
	ListInventory() ([]store.InventoryItem, error)
	SearchProducts(name string) ([]store.InventoryItem, error)
	ReplaceInventory(items []store.InventoryItem) error
	GetItemByName(name string) (*store.InventoryItem, error)
	InsertItem(item *store.InventoryItem) error
	UpdateItem(item *store.InventoryItem) error
	DeleteItem(id int64) error
}

const emptyInventoryMessage = "Your inventory is currently empty. You can add items using the inventory management interface or by uploading a CSV file."

// Incoming CSV headers are normalized through this alias table so exports
// from other tools land in the standard columns.
var csvColumnAliases = map[string]string{
	"product": "product_name",
	"name":    "product_name",
	"item":    "product_name",
	"qty":     "quantity",
	"stock":   "quantity",
	"price":   "unit_price",
	"cost":    "unit_price",
	"type":    "category",
	"desc":    "description",
	"details": "description",
}

var csvExportHeader = []string{"product_name", "quantity", "unit_price", "category", "description"}

type InventoryService struct {
	invStore  InventoryStore
	generator Generator
}

func NewInventoryService(invStore InventoryStore, generator Generator) *InventoryService {
	return &InventoryService{
		invStore:  invStore,
		generator: generator,
	}
}

// List returns the inventory ordered by product name, filtered to names
// containing q when q is non-empty.
func (s *InventoryService) List(q string) ([]store.InventoryItem, error) {
	var items []store.InventoryItem
	var err error
	if q != "" {
		items, err = s.invStore.SearchProducts(q)
	} else {
		items, err = s.invStore.ListInventory()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing inventory: %v", ErrStorage, err)
	}
	return items, nil
}

// ReplaceAll overwrites the inventory with the submitted rows, which is how
// the editable table saves. Rows with blank product names are dropped, same
// as CSV import.
func (s *InventoryService) ReplaceAll(items []store.InventoryItem) (int, error) {
	kept := make([]store.InventoryItem, 0, len(items))
	for _, item := range items {
		item.ProductName = strings.TrimSpace(item.ProductName)
		if item.ProductName == "" {
			continue
		}
		kept = append(kept, item)
	}

	if err := s.invStore.ReplaceInventory(kept); err != nil {
		return 0, fmt.Errorf("%w: replacing inventory: %v", ErrStorage, err)
	}
	return len(kept), nil
}

// ImportCSV replaces the inventory with the rows of an uploaded CSV. Headers
// go through the alias table, non-numeric quantities and prices coerce to
// zero, and rows without a product name are dropped. The model's schema
// analysis of the raw CSV is returned alongside; analysis failure never
// fails the import.
func (s *InventoryService) ImportCSV(ctx context.Context, data []byte) (int, string, error) {
	items, err := parseInventoryCSV(data)
	if err != nil {
		return 0, "", err
	}
	if len(items) == 0 {
		return 0, "", fmt.Errorf("%w: no rows with a product name in the CSV", ErrInventoryEmpty)
	}

	if err := s.invStore.ReplaceInventory(items); err != nil {
		return 0, "", fmt.Errorf("%w: importing inventory: %v", ErrStorage, err)
	}

	analysis, err := s.generator.Generate(ctx, ComposeCSVAnalysis(string(data)))
	if err != nil {
		log.Printf("CSV schema analysis failed: %v", err)
		analysis = ""
	}

	return len(items), analysis, nil
}

// ExportCSV renders the inventory as CSV without the internal id column.
func (s *InventoryService) ExportCSV() (string, error) {
	items, err := s.invStore.ListInventory()
	if err != nil {
		return "", fmt.Errorf("%w: exporting inventory: %v", ErrStorage, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: nothing to export", ErrInventoryEmpty)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvExportHeader); err != nil {
		return "", fmt.Errorf("writing csv header: %w", err)
	}
	for _, item := range items {
		record := []string{
			item.ProductName,
			strconv.Itoa(item.Quantity),
			strconv.FormatFloat(item.UnitPrice, 'f', -1, 64),
			item.Category,
			item.Description,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	return buf.String(), nil
}

// Answer handles one inventory chat turn. Inputs that start with a mutation
// verb are parsed and applied; a verb that does not parse comes back as a
// correction with the grammar. Everything else is answered by the model with
// the current table as context.
func (s *InventoryService) Answer(ctx context.Context, query string) (string, error) {
	if IsCommand(query) {
		cmd, err := ParseCommand(query)
		if err != nil {
			return "", err
		}
		return s.applyCommand(cmd)
	}

	items, err := s.invStore.ListInventory()
	if err != nil {
		return "", fmt.Errorf("%w: loading inventory: %v", ErrStorage, err)
	}
	if len(items) == 0 {
		return emptyInventoryMessage, nil
	}

	return s.generator.Generate(ctx, ComposeInventory(query, RenderInventoryTable(items)))
}

func (s *InventoryService) applyCommand(cmd *InventoryCommand) (string, error) {
	item, err := s.invStore.GetItemByName(cmd.Name)
	if err != nil {
		return "", fmt.Errorf("%w: looking up %q: %v", ErrStorage, cmd.Name, err)
	}

	switch cmd.Verb {
	case CmdAdd:
		qty := 1
		if cmd.Qty != nil {
			qty = *cmd.Qty
		}
		if item == nil {
			newItem := store.InventoryItem{ProductName: cmd.Name, Quantity: qty}
			if cmd.Price != nil {
				newItem.UnitPrice = *cmd.Price
			}
			if cmd.Category != nil {
				newItem.Category = *cmd.Category
			}
			if cmd.Desc != nil {
				newItem.Description = *cmd.Desc
			}
			if err := s.invStore.InsertItem(&newItem); err != nil {
				return "", fmt.Errorf("%w: adding %q: %v", ErrStorage, cmd.Name, err)
			}
			return fmt.Sprintf("Added %s to inventory with quantity %d.", newItem.ProductName, newItem.Quantity), nil
		}

		item.Quantity += qty
		applyOptionalFields(item, cmd)
		if err := s.invStore.UpdateItem(item); err != nil {
			return "", fmt.Errorf("%w: updating %q: %v", ErrStorage, cmd.Name, err)
		}
		return fmt.Sprintf("Added %d x %s. Stock is now %d.", qty, item.ProductName, item.Quantity), nil

	case CmdRemove:
		if item == nil {
			return fmt.Sprintf("No inventory item named %q.", cmd.Name), nil
		}
		if cmd.Qty == nil {
			if err := s.invStore.DeleteItem(item.ID); err != nil {
				return "", fmt.Errorf("%w: removing %q: %v", ErrStorage, cmd.Name, err)
			}
			return fmt.Sprintf("Removed %s from inventory.", item.ProductName), nil
		}

		item.Quantity -= *cmd.Qty
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		if err := s.invStore.UpdateItem(item); err != nil {
			return "", fmt.Errorf("%w: updating %q: %v", ErrStorage, cmd.Name, err)
		}
		return fmt.Sprintf("Removed %d x %s. Stock is now %d.", *cmd.Qty, item.ProductName, item.Quantity), nil

	case CmdSet:
		if item == nil {
			return fmt.Sprintf("No inventory item named %q.", cmd.Name), nil
		}
		var changes []string
		if cmd.Qty != nil {
			item.Quantity = *cmd.Qty
			changes = append(changes, fmt.Sprintf("quantity=%d", *cmd.Qty))
		}
		if cmd.Price != nil {
			item.UnitPrice = *cmd.Price
			changes = append(changes, fmt.Sprintf("price=%s", strconv.FormatFloat(*cmd.Price, 'f', -1, 64)))
		}
		if cmd.Category != nil {
			item.Category = *cmd.Category
			changes = append(changes, fmt.Sprintf("category=%s", *cmd.Category))
		}
		if cmd.Desc != nil {
			item.Description = *cmd.Desc
			changes = append(changes, "description updated")
		}
		if err := s.invStore.UpdateItem(item); err != nil {
			return "", fmt.Errorf("%w: updating %q: %v", ErrStorage, cmd.Name, err)
		}
		return fmt.Sprintf("Updated %s: %s.", item.ProductName, strings.Join(changes, ", ")), nil
	}

	return "", fmt.Errorf("unhandled command verb %q", cmd.Verb)
}

func applyOptionalFields(item *store.InventoryItem, cmd *InventoryCommand) {
	if cmd.Price != nil {
		item.UnitPrice = *cmd.Price
	}
	if cmd.Category != nil {
		item.Category = *cmd.Category
	}
	if cmd.Desc != nil {
		item.Description = *cmd.Desc
	}
}

// RenderInventoryTable formats the inventory as an aligned text table for
// use as model context.
func RenderInventoryTable(items []store.InventoryItem) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "product_name\tquantity\tunit_price\tcategory\tdescription")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\n",
			item.ProductName, item.Quantity, item.UnitPrice, item.Category, item.Description)
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func parseInventoryCSV(data []byte) ([]store.InventoryItem, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing CSV: %v", ErrUnsupportedFormat, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: CSV has no header row", ErrInventoryEmpty)
	}

	// Map each column position to its standard name; unknown columns are
	// carried through the alias table or ignored.
	columns := make([]string, len(records[0]))
	for i, header := range records[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := csvColumnAliases[name]; ok {
			name = canonical
		}
		columns[i] = name
	}

	var items []store.InventoryItem
	for _, record := range records[1:] {
		var item store.InventoryItem
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			switch columns[i] {
			case "product_name":
				item.ProductName = value
			case "quantity":
				item.Quantity = coerceInt(value)
			case "unit_price":
				item.UnitPrice = coerceFloat(value)
			case "category":
				item.Category = value
			case "description":
				item.Description = value
			}
		}
		if item.ProductName == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// coerceInt mirrors the import rule that bad numbers become zero rather
// than failing the whole file. Decimal quantities truncate.
func coerceInt(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func coerceFloat(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}
