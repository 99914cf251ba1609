package forecast

import "fmt"

const (
	NoDataLabel    = "Sem dados disponíveis"
	HourlyFallback = "Previsão horária"
)

var weekdaysPT = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}

var monthsPT = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}

// BuildDateLabel formats the day of the first row carrying a timestamp as
// "weekday, D de month" in Brazilian Portuguese, using UTC.
func BuildDateLabel(rows []Row) string {
	if len(rows) == 0 {
		return NoDataLabel
	}
	for _, r := range rows {
		if r.Timestamp == nil || *r.Timestamp == "" {
			continue
		}
		t, ok := ParseTimestamp(*r.Timestamp)
		if !ok {
			return HourlyFallback
		}
		return fmt.Sprintf("%s, %d de %s", weekdaysPT[t.Weekday()], t.Day(), monthsPT[t.Month()-1])
	}
	return HourlyFallback
}
