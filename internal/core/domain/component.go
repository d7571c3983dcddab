package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

// Entity holds what every published Home Assistant entity shares.
// FurnaceId is empty for bridge entities.
type Entity struct {
	Device    Device
	Id        string
	Name      string
	UniqueId  string
	Icon      string
	FurnaceId string
}

func (e Entity) OwnedByFurnace() bool {
	return e.FurnaceId != ""
}

type GenericSensor struct {
	Entity
	SensorType        string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string
	EntityCategory    string // diagnostic, config
	EnabledByDefault  *bool
}

type GenericSwitch struct {
	Entity
}

type GenericInputNumber struct {
	Entity
	Min          float64
	Max          float64
	Step         float64
	Mode         string
	InitialValue float64
}
