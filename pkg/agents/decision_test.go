package agents

import "testing"

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name       string
		response   string
		wantNext   string
		wantReason string
	}{
		{
			name:       "clean json",
			response:   `{"next": "coder", "reason": "hesaplama gerekli"}`,
			wantNext:   "coder",
			wantReason: "hesaplama gerekli",
		},
		{
			name:       "json wrapped in prose",
			response:   "Tabii, kararım şu:\n```json\n{\"next\": \"researcher\", \"reason\": \"bilgi lazım\"}\n```\nUmarım yardımcı olur.",
			wantNext:   "researcher",
			wantReason: "bilgi lazım",
		},
		{
			name:       "finish decision",
			response:   `{"next": "FINISH", "reason": "tamamlandı"}`,
			wantNext:   "FINISH",
			wantReason: "tamamlandı",
		},
		{
			name:       "no json at all",
			response:   "Bir sonraki adım researcher olmalı.",
			wantNext:   "FINISH",
			wantReason: "Belirtilmedi",
		},
		{
			name:       "malformed json",
			response:   `{"next": "coder", "reason":`,
			wantNext:   "FINISH",
			wantReason: "Belirtilmedi",
		},
		{
			name:       "invented agent name",
			response:   `{"next": "database_admin", "reason": "veri lazım"}`,
			wantNext:   "FINISH",
			wantReason: "veri lazım",
		},
		{
			name:       "missing next field",
			response:   `{"reason": "emin değilim"}`,
			wantNext:   "FINISH",
			wantReason: "emin değilim",
		},
		{
			name:       "empty response",
			response:   "",
			wantNext:   "FINISH",
			wantReason: "Belirtilmedi",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ParseDecision(tc.response)
			if d.Next != tc.wantNext {
				t.Errorf("Next = %q, want %q", d.Next, tc.wantNext)
			}
			if d.Reason != tc.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tc.wantReason)
			}
		})
	}
}
