package knowledge

import (
	"strings"
	"testing"
)

func TestMatchComponentExact(t *testing.T) {
	info := MatchComponent("Device:R")
	if info == nil {
		t.Fatalf("Expected entry for Device:R")
	}
	if info.Category != "passive" {
		t.Fatalf("Expected passive, got %q", info.Category)
	}
	if !info.HasCheck("value_not_empty") {
		t.Fatalf("Expected value_not_empty check")
	}
}

func TestMatchComponentWildcard(t *testing.T) {
	info := MatchComponent("MCU_Microchip:ATmega328P-AU")
	if info == nil {
		t.Fatalf("Expected wildcard match for ATmega328P-AU")
	}
	if info.Category != "mcu" {
		t.Fatalf("Expected mcu, got %q", info.Category)
	}
	if info.MaxVoltage() != 5.5 {
		t.Fatalf("Expected max voltage 5.5, got %v", info.MaxVoltage())
	}
	if MatchComponent("Vendor:TotallyUnknownPart") != nil {
		t.Fatalf("Expected nil for unknown part")
	}
}

func TestMatchComponentFamilies(t *testing.T) {
	cases := []struct {
		libID    string
		category string
	}{
		{"Device:Q_NPN_BCE", "active"},
		{"Device:Q_NMOS_GDS", "active"},
		{"Device:D_Zener", "passive"},
		{"Device:D_Schottky", "passive"},
		{"Device:Crystal", "passive"},
		{"Device:Fuse", "passive"},
		{"Regulator_Linear:LM7812_TO220", "power"},
		{"Regulator_Linear:AMS1117-3.3", "power"},
		{"Regulator_Switching:LM2596S-5", "power"},
		{"MCU_ST:STM32F103C8T6", "mcu"},
		{"MCU_ST:STM32F405RGT6", "mcu"},
		{"MCU_RaspberryPi:RP2040", "mcu"},
		{"MCU_Module:Arduino_Nano_v3.x", "mcu_module"},
		{"Interface_UART:MAX232_SO16", "communication"},
		{"Interface_USB:CH340G", "communication"},
		{"Interface_USB:CP2102N", "communication"},
		{"Interface_CAN_LIN:MCP2551-I-SN", "communication"},
		{"Amplifier_Operational:LM324_DIP", "analog"},
		{"Memory_EEPROM:AT24C256", "memory"},
		{"Memory_Flash:W25Q32JVSS", "memory"},
		{"Sensor_Temperature:DS18B20Z", "sensor"},
		{"Sensor_Humidity:DHT11", "sensor"},
		{"Connector_Generic:Conn_01x02", "connector"},
	}
	for _, tc := range cases {
		info := MatchComponent(tc.libID)
		if info == nil {
			t.Fatalf("Expected entry for %s", tc.libID)
		}
		if info.Category != tc.category {
			t.Fatalf("Expected %s category %q, got %q", tc.libID, tc.category, info.Category)
		}
	}
}

func TestSTM32MaxVoltage(t *testing.T) {
	info := MatchComponent("MCU_ST:STM32F103C8T6")
	if info == nil || info.MaxVoltage() != 3.6 {
		t.Fatalf("Expected STM32F103 max 3.6V, got %+v", info)
	}
}

func TestPowerVoltage(t *testing.T) {
	v, ok := PowerVoltage("+3V3")
	if !ok || v != 3.3 {
		t.Fatalf("Expected 3.3, got %v/%v", v, ok)
	}
	v, ok = PowerVoltage("GND")
	if !ok || v != 0 {
		t.Fatalf("Expected GND known at 0V, got %v/%v", v, ok)
	}
	if _, ok := PowerVoltage("SIG_A"); ok {
		t.Fatalf("Expected SIG_A unknown")
	}
}

func TestIsPowerNet(t *testing.T) {
	for _, name := range []string{"+5V", "+48V", "VCC", "VBUS", "GND"} {
		if !IsPowerNet(name) {
			t.Fatalf("Expected %q to be a power net", name)
		}
	}
	if IsPowerNet("SPI_MOSI") {
		t.Fatalf("Expected SPI_MOSI not to be a power net")
	}
}

func TestMfgConstraints(t *testing.T) {
	if got := MfgConstraint("min_trace_width_mm"); got != 0.15 {
		t.Fatalf("Expected 0.15, got %v", got)
	}
	if got := MfgConstraint("min_via_drill_mm"); got != 0.3 {
		t.Fatalf("Expected 0.3, got %v", got)
	}
	if got := MfgConstraint("nope"); got != 0 {
		t.Fatalf("Expected 0 for unknown constraint, got %v", got)
	}
}

func TestMfgOverrides(t *testing.T) {
	SetMfgOverrides(map[string]float64{"min_trace_width_mm": 0.2})
	defer SetMfgOverrides(nil)

	if got := MfgConstraint("min_trace_width_mm"); got != 0.2 {
		t.Fatalf("Expected overridden 0.2, got %v", got)
	}
	if got := MfgConstraint("min_via_drill_mm"); got != 0.3 {
		t.Fatalf("Expected default 0.3, got %v", got)
	}

	SetMfgOverrides(nil)
	if got := MfgConstraint("min_trace_width_mm"); got != 0.15 {
		t.Fatalf("Expected default 0.15 after reset, got %v", got)
	}
}

func TestMinTraceWidthFor(t *testing.T) {
	if got := MinTraceWidthFor(0.2); got != 0.15 {
		t.Fatalf("Expected 0.15 for 0.2A, got %v", got)
	}
	if got := MinTraceWidthFor(1.0); got != 0.5 {
		t.Fatalf("Expected 0.5 for 1A, got %v", got)
	}
	if got := MinTraceWidthFor(50); got != 5.0 {
		t.Fatalf("Expected table maximum for 50A, got %v", got)
	}
}

func TestKnowledgeText(t *testing.T) {
	text := KnowledgeText([]SymbolRef{
		{Reference: "U1", LibID: "MCU_Microchip:ATmega328P-PU"},
		{Reference: "U2", LibID: "MCU_Microchip:ATmega328P-PU"},
		{Reference: "J1", LibID: "Vendor:Unknown"},
	})
	if !strings.Contains(text, "U1") || !strings.Contains(text, "ATmega328P") {
		t.Fatalf("Expected U1 entry, got %q", text)
	}
	if strings.Count(text, "ATmega328P (") != 1 {
		t.Fatalf("Expected deduplication by lib id, got %q", text)
	}

	empty := KnowledgeText(nil)
	if !strings.Contains(empty, "No specific component knowledge") {
		t.Fatalf("Expected fallback text, got %q", empty)
	}
}
