package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Video   VideoEventsConfig `mapstructure:"video"`
}

// VideoEventsConfig 针对视频领域的事件开关.
type VideoEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"`
	Progress bool `mapstructure:"progress"`
	Complete bool `mapstructure:"complete"`
	Failed   bool `mapstructure:"failed"`
	Deleted  bool `mapstructure:"deleted"`
	Viewed   bool `mapstructure:"viewed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.video.uploaded", true)
	v.SetDefault("events.video.progress", true)
	v.SetDefault("events.video.complete", true)
	v.SetDefault("events.video.failed", true)
	v.SetDefault("events.video.deleted", true)
	v.SetDefault("events.video.viewed", false)
}
