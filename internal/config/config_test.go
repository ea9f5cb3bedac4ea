package config

import "testing"

func TestCheckBrokers(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  []string
		fails bool
	}{
		{name: "single", in: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "list with spaces", in: " b1:9092 , b2:9092 ", want: []string{"b1:9092", "b2:9092"}},
		{name: "only separators", in: " , ", fails: true},
		{name: "empty", in: "", fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := checkBrokers(tc.in)
			if tc.fails {
				if err == nil {
					t.Fatalf("checkBrokers(%q) accepted an empty list", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("checkBrokers(%q): %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("checkBrokers(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("broker[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// Every loader that consumes KAFKA_BROKERS rejects a list with no
// usable addresses, not just the receiver's.
func TestLoadersRejectEmptyBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/events")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")

	if _, err := LoadReceiver(); err == nil {
		t.Error("LoadReceiver accepted an empty broker list")
	}
	if _, err := LoadStorage(); err == nil {
		t.Error("LoadStorage accepted an empty broker list")
	}
	if _, err := LoadAnalyzer(); err == nil {
		t.Error("LoadAnalyzer accepted an empty broker list")
	}
	if _, err := LoadArchiver(); err == nil {
		t.Error("LoadArchiver accepted an empty broker list")
	}
}

func TestLoadersNormalizeBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " b1:9092 ,b2:9092 ")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/events")

	cfg, err := LoadStorage()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.KafkaBrokers != "b1:9092,b2:9092" {
		t.Errorf("KafkaBrokers = %q, want trimmed comma list", cfg.KafkaBrokers)
	}
}
