package config

type WebIngress struct {
	Port int `yaml:"port"`
}

type ENetIngress struct {
	Port int `yaml:"port"`
}

type ServerIngress struct {
	Desktop []ENetIngress `yaml:"desktop"`
	Web     WebIngress    `yaml:"web"`
}

type RedisSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RoomSettings struct {
	TickRate     int    `yaml:"tickRate"`
	SnapshotRate int    `yaml:"snapshotRate"`
	MaxClients   int    `yaml:"maxClients"`
	MinClients   int    `yaml:"minClients"`
	DefaultMode  string `yaml:"defaultMode"`
	DefaultMap   string `yaml:"defaultMap"`
}

type MatchmakingSettings struct {
	Regions       []string `yaml:"regions"`
	RosterSize    int      `yaml:"rosterSize"`
	MinRoster     int      `yaml:"minRoster"`
	DefaultRating int      `yaml:"defaultRating"`
}

type ServerSettings struct {
	ServerDescription string              `yaml:"serverDescription"`
	DBPath            string              `yaml:"dbPath"`
	Redis             RedisSettings       `yaml:"redis"`
	Room              RoomSettings        `yaml:"room"`
	Matchmaking       MatchmakingSettings `yaml:"matchmaking"`
	Ingress           ServerIngress       `yaml:"ingress"`
}

type Config struct {
	Server ServerSettings `yaml:"server"`
}
