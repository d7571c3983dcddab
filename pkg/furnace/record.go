package furnace

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Record is the persisted form of a device. The disable counter is not part
// of it.
type Record struct {
	ElectricityStored float64      `json:"electricityStored"`
	SmeltingTicks     int32        `json:"smeltingTicks"`
	Items             []SlotRecord `json:"Items"`
}

type SlotRecord struct {
	Slot   uint8    `json:"Slot"`
	ID     ItemKind `json:"id"`
	Count  int8     `json:"Count"`
	Charge float64  `json:"Charge,omitempty"`
}

func (d *Device) Serialize() Record {
	r := Record{
		ElectricityStored: d.energy.Stored(),
		SmeltingTicks:     int32(d.conv.Progress()),
		Items:             []SlotRecord{},
	}
	for slot := Slot(0); slot < SlotCount; slot++ {
		stack := d.slots.Get(slot)
		if stack.IsEmpty() {
			continue
		}
		r.Items = append(r.Items, SlotRecord{
			Slot:   uint8(slot),
			ID:     stack.Kind,
			Count:  int8(stack.Count),
			Charge: stack.Charge,
		})
	}
	return r
}

// Deserialize replaces the device state with the record. Entries pointing at
// unknown slots are skipped.
func (d *Device) Deserialize(r Record) {
	d.energy.restore(r.ElectricityStored)
	d.conv.restore(int(r.SmeltingTicks))
	d.slots.clear()
	for _, item := range r.Items {
		slot := Slot(item.Slot)
		if !slot.Valid() {
			d.logger.Debug("furnace record: skipping unknown slot", zap.Int("slot", int(item.Slot)))
			continue
		}
		d.slots.put(slot, ItemStack{Kind: item.ID, Count: int(item.Count), Charge: item.Charge})
	}
}

func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode furnace record: %w", err)
	}
	return r, nil
}
