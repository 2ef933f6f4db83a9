package domain

import (
	"encoding/json"
	"strings"
)

// Appointment — структурированное «предложение встречи», которое едет через
// общую ленту как сообщение type=appointment с JSON в content.
type Appointment struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Place string `json:"place"`
}

// Normalize обрезает пробелы во всех полях.
func (a Appointment) Normalize() Appointment {
	return Appointment{
		Date:  strings.TrimSpace(a.Date),
		Time:  strings.TrimSpace(a.Time),
		Place: strings.TrimSpace(a.Place),
	}
}

// Validate — все три поля обязательны после trim.
func (a Appointment) Validate() error {
	if a.Date == "" || a.Time == "" || a.Place == "" {
		return ErrInvalidAppointment
	}
	return nil
}

func (a Appointment) Encode() (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAppointment парсит content сообщения type=appointment. При ошибке
// потребитель показывает content как есть.
func DecodeAppointment(content string) (Appointment, error) {
	var a Appointment
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}
