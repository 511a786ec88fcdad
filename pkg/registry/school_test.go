package registry

import (
	"reflect"
	"testing"
)

func TestStagesFromText(t *testing.T) {
	tests := []struct {
		input string
		want  []Stage
	}{
		{"Educação Infantil", []Stage{StageInfantil}},
		{"creche", []Stage{StageInfantil}},
		{"pre-escola", []Stage{StageInfantil}},
		{"fundamental i", []Stage{StageFundamental1}},
		{"fundamental 1", []Stage{StageFundamental1}},
		{"fundamental anos iniciais", []Stage{StageFundamental1}},
		{"fundamental ii", []Stage{StageFundamental2}},
		{"fundamental 2", []Stage{StageFundamental2}},
		{"fundamental anos finais", []Stage{StageFundamental2}},
		{"fundamental", []Stage{StageFundamental1}}, // bare: defaults to I
		{"ensino medio", []Stage{StageMedio}},
		{"eja", []Stage{StageEJA}},
		{"", []Stage{StageInfantil}},            // unclassifiable: default
		{"modalidade X", []Stage{StageInfantil}}, // unclassifiable: default
	}
	for _, tt := range tests {
		if got := StagesFromText(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("StagesFromText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStatusFromText(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"pendente", StatusPendente},
		{"Situação Pendente", StatusPendente},
		{"em análise", StatusEmAnalise},
		{"em analise", StatusEmAnalise},
		{"matriculado", StatusMatriculado},
		{"", StatusMatriculado},
		{"qualquer coisa", StatusMatriculado},
	}
	for _, tt := range tests {
		if got := StatusFromText(tt.input); got != tt.want {
			t.Errorf("StatusFromText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestYesMarker(t *testing.T) {
	for input, want := range map[string]bool{
		"Sim": true, "sim": true, "SIM": true, "Sim, precisa": true,
		"Não": false, "nao": false, "": false,
	} {
		if got := YesMarker(input); got != want {
			t.Errorf("YesMarker(%q) = %v, want %v", input, got, want)
		}
	}
}
