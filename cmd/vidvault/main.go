// Package main 启动应用程序
package main

import "github.com/yeisme/vidvault/pkg/cmd"

//	@title			VidVault API
//	@version		1.0
//	@description	VidVault 是一个多租户的视频管理服务：上传、后台处理（元数据、封面、敏感度评分）、字节区间流式播放与实时进度推送。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
