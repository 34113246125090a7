package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/salessite/internal/config"
	"github.com/salessite/internal/db"
)

func main() {
	cfg := config.Load()

	email := flag.String("email", cfg.AdminEmail, "admin email")
	password := flag.String("password", cfg.AdminPassword, "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-admin -email admin@example.com -password <secret>")
		os.Exit(2)
	}

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	created, err := db.EnsureUser(gdb, *email, *password)
	if err != nil {
		log.Fatal("创建用户失败:", err)
	}
	if !created {
		fmt.Println("用户已存在，无需初始化")
		return
	}
	fmt.Println("管理员用户创建成功:", *email)
}
