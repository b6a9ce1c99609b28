package plugin

import (
	"testing"
)

func TestUniqueID(t *testing.T) {
	tests := []struct {
		code string
		want int32
	}{
		{"Mobs", 0x4D6F6273},
		{"Mbau", 0x4D626175},
		{"AAAA", 0x41414141},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info := Info{Code: tt.code}
			if got := info.UniqueID(); got != tt.want {
				t.Errorf("Expected %#x, got %#x", tt.want, got)
			}
			if info.UniqueID() != info.UniqueID() {
				t.Error("UniqueID is not deterministic")
			}
		})
	}
}

func TestVersionCode(t *testing.T) {
	tests := []struct {
		version string
		want    int32
		wantErr bool
	}{
		{"2.5.1", 2510, false},
		{"v1.0", 1000, false},
		{"3", 3000, false},
		{"", 0, false},
		{"1.10.0", 0, true},
		{"1.x", 0, true},
		{"1.2.3.4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := Info{Version: tt.version}.VersionCode()
			if (err != nil) != tt.wantErr {
				t.Fatalf("VersionCode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Info{ID: "com.example.mobius", Name: "Mobius", Version: "2.5.0", Code: "Mobs"}

	tests := []struct {
		name    string
		modify  func(*Info)
		wantErr bool
	}{
		{"valid", func(*Info) {}, false},
		{"empty id", func(i *Info) { i.ID = "" }, true},
		{"empty name", func(i *Info) { i.Name = "" }, true},
		{"short code", func(i *Info) { i.Code = "Mob" }, true},
		{"control character", func(i *Info) { i.Code = "Mo\x01s" }, true},
		{"bad version", func(i *Info) { i.Version = "two" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := valid
			tt.modify(&info)
			err := info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
