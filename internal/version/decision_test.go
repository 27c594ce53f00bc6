package version

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		installed string
		latest    string
		want      Outcome
	}{
		{"fresh install", "not-installed", "1.21.50.7", OutcomeUpdate},
		{"fresh install with unknown latest", "not-installed", "unknown", OutcomeUpdate},
		{"unknown latest blocks update", "1.21.44.1", "unknown", OutcomeNoTarget},
		{"exact match", "1.21.44.1", "1.21.44.1", OutcomeUpToDate},
		{"older installed", "1.21.44.1", "1.21.50.7", OutcomeUpdate},
		{"newer installed", "1.21.50.7", "1.21.44.1", OutcomeInstalledNewer},
		{"component-wise not lexicographic", "1.21.9.1", "1.21.10.1", OutcomeUpdate},
		{"non-numeric installed", "installed-20250101", "1.21.50.7", OutcomeUpdate},
		{"non-numeric latest", "1.21.44.1", "preview-build", OutcomeUpdate},
		{"equal non-numeric strings", "preview-build", "preview-build", OutcomeUpToDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(Parse(tt.installed), Parse(tt.latest))
			if d.Outcome != tt.want {
				t.Errorf("Decide(%s, %s) = %v (%s), want %v",
					tt.installed, tt.latest, d.Outcome, d.Reason, tt.want)
			}
			if d.Reason == "" {
				t.Error("Decision should carry a reason")
			}
		})
	}
}

func TestDecide_UpdateNeeded(t *testing.T) {
	if !Decide(MakeNotInstalled(), Parse("1.21.50.7")).UpdateNeeded() {
		t.Error("fresh install should need update")
	}
	if Decide(Parse("1.21.50.7"), MakeUnknown()).UpdateNeeded() {
		t.Error("unknown latest should never need update")
	}
	if Decide(Parse("1.21.50.7"), Parse("1.21.44.1")).UpdateNeeded() {
		t.Error("installed-newer anomaly should not trigger update")
	}
}
