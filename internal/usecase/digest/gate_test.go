package digest

import "testing"

func TestEnoughTraffic(t *testing.T) {
	cases := []struct {
		name                         string
		unread, hot, channels, users int
		want                         bool
	}{
		{"непрочитанные личные", 1, 0, 0, 0, true},
		{"горячие обсуждения", 0, 2, 0, 0, true},
		{"рост организации", 0, 0, 3, 2, true},
		{"только каналы", 0, 0, 3, 0, false},
		{"только люди", 0, 0, 0, 2, false},
		{"тишина", 0, 0, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EnoughTraffic(tc.unread, tc.hot, tc.channels, tc.users); got != tc.want {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
}
