package config

import "github.com/joho/godotenv"

// LoadEnv loads variables from a .env file in the working directory without
// overriding ones already set. A missing file is reported as an os.IsNotExist error.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}
