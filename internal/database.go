package internal

import (
	"fmt"

	"legalflow/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(cfg *config.Config) error {
	dsn := cfg.Database.DSN()

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate the schema
	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	fmt.Println("Database connected and migrated successfully")
	return nil
}

func autoMigrate() error {
	// Create tables only if they don't exist (preserve existing data)
	fmt.Println("Creating documents table if not exists...")
	result := DB.Exec(`
        CREATE TABLE IF NOT EXISTS documents (
            id varchar(191) PRIMARY KEY,
            user_id varchar(191) NOT NULL,
            template_name longtext NOT NULL,
            document_type longtext,
            form_data json,
            status varchar(32) DEFAULT 'draft',
            company_signature longtext,
            client_signature longtext,
            signed_document_url longtext,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_documents_user_id (user_id),
            INDEX idx_documents_deleted_at (deleted_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create documents table: %w", result.Error)
	}

	ensureDocumentsColumns := map[string]string{
		"user_id":             "ALTER TABLE documents ADD COLUMN user_id varchar(191)",
		"template_name":       "ALTER TABLE documents ADD COLUMN template_name longtext",
		"document_type":       "ALTER TABLE documents ADD COLUMN document_type longtext",
		"form_data":           "ALTER TABLE documents ADD COLUMN form_data json",
		"status":              "ALTER TABLE documents ADD COLUMN status varchar(32) DEFAULT 'draft'",
		"company_signature":   "ALTER TABLE documents ADD COLUMN company_signature longtext",
		"client_signature":    "ALTER TABLE documents ADD COLUMN client_signature longtext",
		"signed_document_url": "ALTER TABLE documents ADD COLUMN signed_document_url longtext",
		"created_at":          "ALTER TABLE documents ADD COLUMN created_at datetime(3) NULL",
		"updated_at":          "ALTER TABLE documents ADD COLUMN updated_at datetime(3) NULL",
		"deleted_at":          "ALTER TABLE documents ADD COLUMN deleted_at datetime(3) NULL",
	}

	for column, stmt := range ensureDocumentsColumns {
		if err := ensureColumn("documents", column, stmt); err != nil {
			return err
		}
	}

	fmt.Println("Creating document_access_tokens table if not exists...")
	result = DB.Exec(`
        CREATE TABLE IF NOT EXISTS document_access_tokens (
            id varchar(191) PRIMARY KEY,
            token varchar(64) NOT NULL,
            document_id varchar(191) NOT NULL,
            recipient_email longtext,
            purpose varchar(32) DEFAULT 'signing',
            created_by varchar(191),
            expires_at datetime(3) NOT NULL,
            used_at datetime(3) NULL,
            created_at datetime(3) NULL,
            UNIQUE INDEX idx_document_access_tokens_token (token),
            INDEX idx_document_access_tokens_document_id (document_id),
            INDEX idx_document_access_tokens_expires_at (expires_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create document_access_tokens table: %w", result.Error)
	}

	ensureTokenColumns := map[string]string{
		"recipient_email": "ALTER TABLE document_access_tokens ADD COLUMN recipient_email longtext",
		"purpose":         "ALTER TABLE document_access_tokens ADD COLUMN purpose varchar(32) DEFAULT 'signing'",
		"created_by":      "ALTER TABLE document_access_tokens ADD COLUMN created_by varchar(191)",
		"used_at":         "ALTER TABLE document_access_tokens ADD COLUMN used_at datetime(3) NULL",
		"created_at":      "ALTER TABLE document_access_tokens ADD COLUMN created_at datetime(3) NULL",
	}

	for column, stmt := range ensureTokenColumns {
		if err := ensureColumn("document_access_tokens", column, stmt); err != nil {
			return err
		}
	}

	fmt.Println("Creating email_logs table if not exists...")
	result = DB.Exec(`
        CREATE TABLE IF NOT EXISTS email_logs (
            id varchar(191) PRIMARY KEY,
            document_id varchar(191),
            recipient_email longtext NOT NULL,
            email_type varchar(32) NOT NULL,
            status varchar(16) NOT NULL,
            provider_message_id longtext,
            sent_at datetime(3) NULL,
            INDEX idx_email_logs_document_id (document_id)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create email_logs table: %w", result.Error)
	}

	fmt.Println("Creating activity_logs table if not exists...")
	result = DB.Exec(`
        CREATE TABLE IF NOT EXISTS activity_logs (
            id varchar(191) PRIMARY KEY,
            method varchar(10) NOT NULL,
            path varchar(255) NOT NULL,
            document_id varchar(36),
            user_agent text,
            ip_address varchar(45),
            request_body text,
            query_params text,
            status_code int NOT NULL,
            response_time bigint NOT NULL,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_activity_logs_deleted_at (deleted_at),
            INDEX idx_activity_logs_method (method),
            INDEX idx_activity_logs_path (path),
            INDEX idx_activity_logs_document_id (document_id),
            INDEX idx_activity_logs_created_at (created_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create activity_logs table: %w", result.Error)
	}

	if err := ensureColumn("activity_logs", "document_id", "ALTER TABLE activity_logs ADD COLUMN document_id varchar(36)"); err != nil {
		return err
	}

	fmt.Println("Tables created/verified successfully")
	return nil
}

func ensureColumn(table, column, statement string) error {
	if DB.Migrator().HasColumn(table, column) {
		return nil
	}

	fmt.Printf("Adding missing column %s.%s...\n", table, column)
	if err := DB.Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}

	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
