package config

import (
	"github.com/go-playground/validator/v10"
)

// validate 패키지 전역에서 재사용되는 validator 인스턴스입니다.
// validator는 내부적으로 구조체 메타데이터를 캐싱하므로 싱글톤으로 사용하는 것이 효율적입니다.
var validate = validator.New()
