package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/atelier/internal/config"
	"github.com/atelier/internal/db"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, URL: cfg.DatabaseURL}); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.User{}).Where("username = ?", *username).Count(&count).Error; err != nil {
		log.Fatalf("failed to look up user: %v", err)
	}
	if count > 0 {
		fmt.Printf("user %q already exists\n", *username)
		return
	}

	if err := db.EnsureUser(db.DB, *username, *password); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("admin user %q created\n", *username)
}
