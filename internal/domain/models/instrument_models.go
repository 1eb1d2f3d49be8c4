package models

import "time"

// TransportType определяет физический транспорт до инструмента.
type TransportType string

const (
	TransportTCP    TransportType = "tcp"
	TransportSerial TransportType = "serial"
	TransportSSH    TransportType = "ssh"
)

// TransportDescriptor описывает, как открыть соединение с инструментом
// и каким драйвером с ним разговаривать. Загружается из реестра инструментов.
type TransportDescriptor struct {
	Type         TransportType `json:"type"`
	Address      string        `json:"address"`        // "IP:PORT" или путь к serial-порту
	Baud         int           `json:"baud,omitempty"` // Только для serial
	User         string        `json:"user,omitempty"` // Только для ssh
	Password     string        `json:"password,omitempty"`
	TimeoutMs    int           `json:"timeout_ms,omitempty"`
	DriverType   string        `json:"driver_type"`
	InitCommands []string      `json:"init_commands,omitempty"` // Однократная инициализация
}

// LegacyCommand описывает внешнюю команду-fallback для типа измерения,
// у которого нет нативного драйвера.
type LegacyCommand struct {
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
}

// InstrumentStatus - состояние инструмента в пуле для get_instrument_status.
type InstrumentStatus struct {
	InstrumentID string        `json:"instrument_id"`
	Transport    TransportType `json:"transport"`
	DriverType   string        `json:"driver_type"`
	Connected    bool          `json:"connected"`
	Initialized  bool          `json:"initialized"`
	LastUsed     time.Time     `json:"last_used,omitempty"`
	UseCount     int64         `json:"use_count"`
}
