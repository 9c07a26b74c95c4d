package config

// TextractConfig configures the AWS Textract OCR provider. Empty credentials
// fall back to the default AWS credential chain.
type TextractConfig struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func (c *TextractConfig) applyEnv() {
	setString(&c.Region, "AWS_REGION")
	setString(&c.Endpoint, "AWS_ENDPOINT")
	setString(&c.AccessKey, "AWS_ACCESS_KEY")
	setString(&c.SecretKey, "AWS_SECRET_KEY")
}

// OllamaConfig configures OCR through a vision model served by Ollama.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt"`
}

func (c *OllamaConfig) applyEnv() {
	setString(&c.Endpoint, "OLLAMA_HOST")
	setString(&c.Model, "DOCSUM_OLLAMA_MODEL")
}
