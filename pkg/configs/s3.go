package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// S3Type 对象存储后端类型.
type S3Type string

const (
	// S3TypeMinio MinIO 或任意 S3 兼容服务.
	S3TypeMinio S3Type = "minio"
	// S3TypeMemory 进程内存储，仅用于开发与测试.
	S3TypeMemory S3Type = "memory"
)

// S3Config MinIO S3存储配置.
type S3Config struct {
	Type            S3Type `mapstructure:"type"              rule:"oneof=minio memory"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"       rule:"required"`
	Region          string `mapstructure:"region"`
	PartSizeMB      uint64 `mapstructure:"part_size_mb"` // 未知长度流式上传的分片大小
}

const (
	DefaultS3Type            = S3TypeMinio      // 默认后端
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "ingestvault"    // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
	DefaultS3PartSizeMB      = 16               // 默认分片大小（MB）
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.type", DefaultS3Type)
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.part_size_mb", DefaultS3PartSizeMB)
}
