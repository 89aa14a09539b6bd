package model

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Recognized soft weight names.
const (
	WeightPreferMorning           = "prefer_morning"
	WeightPreferAfternoon         = "prefer_afternoon"
	WeightAvoidGaps               = "avoid_gaps"
	WeightRoomCapacityUtilization = "room_capacity_utilization"
	WeightFacultyLoadBalance      = "faculty_load_balance"
)

// Config is the constraints configuration of one solve.
type Config struct {
	Days          []string           `mapstructure:"days" json:"days" validate:"required,min=1,dive,required"`
	SlotsPerDay   int                `mapstructure:"slots_per_day" json:"slots_per_day" validate:"gt=0"`
	SlotMinutes   int                `mapstructure:"slot_minutes" json:"slot_minutes" validate:"gt=0"`
	DayStart      string             `mapstructure:"day_start" json:"day_start" validate:"required"`
	TimeLimitSec  int                `mapstructure:"time_limit_sec" json:"time_limit_sec" validate:"gte=0"`
	SoftWeights   map[string]float64 `mapstructure:"soft_weights" json:"soft_weights" validate:"dive,keys,oneof=prefer_morning prefer_afternoon avoid_gaps room_capacity_utilization faculty_load_balance,endkeys,gte=0"`
	EnforceSkills bool               `mapstructure:"enforce_skills" json:"enforce_skills"`
}

func DefaultConfig() Config {
	return Config{
		Days:         []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		SlotsPerDay:  16,
		SlotMinutes:  30,
		DayStart:     "08:00",
		TimeLimitSec: 60,
		SoftWeights:  defaultSoftWeights(),
	}
}

func defaultSoftWeights() map[string]float64 {
	return map[string]float64{WeightPreferMorning: 1}
}

// Weight returns the named soft weight, zero when unset.
func (config Config) Weight(name string) float64 {
	return config.SoftWeights[name]
}

func (config Config) TimeLimit() time.Duration {
	return time.Duration(config.TimeLimitSec) * time.Second
}

// Grid derives the time grid; Validate must have succeeded.
func (config Config) Grid() grid.Grid {
	dayStart, err := grid.ParseClock(config.DayStart)
	if err != nil {
		dayStart = 8 * time.Hour
	}
	return grid.Grid{
		Days:        config.Days,
		SlotsPerDay: config.SlotsPerDay,
		SlotMinutes: config.SlotMinutes,
		DayStart:    dayStart,
	}
}

func (config Config) Validate() error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid constraints config: %w", err)
	}
	if _, err := grid.ParseClock(config.DayStart); err != nil {
		return fmt.Errorf("invalid constraints config: %w", err)
	}
	if err := config.Grid().Validate(); err != nil {
		return fmt.Errorf("invalid constraints config: %w", err)
	}
	return nil
}

// ConfigFromFile reads a JSON or YAML constraints config. Missing keys keep their defaults.
func ConfigFromFile(file string) (Config, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read constraints config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("cannot parse constraints config: %w", err)
	}
	return DecodeConfig(raw)
}

// DecodeConfig decodes an already parsed document over DefaultConfig and validates the result.
func DecodeConfig(raw map[string]any) (Config, error) {
	config := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("cannot decode constraints config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

var validate = validator.New()
